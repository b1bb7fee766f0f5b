package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"shogi/pkg/shogi"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default: search upwards from the working directory)")
	blackKind := flag.String("black", "human", "black player: human or engine")
	whiteKind := flag.String("white", "human", "white player: human or engine")
	kifPath := flag.String("kif", "", "replay a KIF file instead of asking for moves")
	millis := flag.Int("millis", 0, "engine think time per move in ms (overrides config)")
	maxInvalid := flag.Int("max-invalid", -1, "consecutive rejected moves before giving up, 0 for no limit (overrides config)")
	maxPlies := flag.Int("max-plies", -1, "stop after this many moves, 0 for no limit (overrides config)")
	recordPath := flag.String("record", "", "append the finished game to this parquet file (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *millis > 0 {
		cfg.Millis = *millis
	}
	if *maxInvalid >= 0 {
		cfg.MaxInvalid = *maxInvalid
	}
	if *maxPlies >= 0 {
		cfg.MaxPlies = *maxPlies
	}
	if *recordPath != "" {
		cfg.Record = *recordPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var black, white shogi.Input
	blackName, whiteName := *blackKind, *whiteKind
	opts := []shogi.GameOption{shogi.WithMaxInvalid(cfg.MaxInvalid), shogi.WithMaxPlies(cfg.MaxPlies)}
	if *kifPath != "" {
		replay, err := shogi.LoadReplay(*kifPath)
		if err != nil {
			fatal(err)
		}
		if replay.Truncated {
			fmt.Fprintf(os.Stderr, "replay stops early: %s\n", replay.Reason)
		}
		black, white = replay.Input(shogi.Black), replay.Input(shogi.White)
		blackName, whiteName = replay.Players.BlackName, replay.Players.WhiteName
		opts = append(opts, shogi.WithMaxInvalid(1))
	} else {
		humanBlack, humanWhite := shogi.SharedLineInputs(os.Stdin, os.Stdout)
		black, err = newInput(ctx, *blackKind, shogi.Black, humanBlack, cfg)
		if err != nil {
			fatal(err)
		}
		white, err = newInput(ctx, *whiteKind, shogi.White, humanWhite, cfg)
		if err != nil {
			fatal(err)
		}
	}
	for _, input := range []shogi.Input{black, white} {
		if c, ok := input.(io.Closer); ok {
			defer c.Close()
		}
	}

	book := &shogi.RecordBook{}
	opts = append(opts, shogi.WithRecorder(book))
	game := shogi.NewGame(shogi.NewBoard(), shogi.NewTextRender(os.Stdout), black, white, opts...)
	playErr := game.Start(ctx)
	fmt.Printf("result: %s after %d moves\n", game.Outcome(), game.Board().Ply())

	if cfg.Record != "" {
		if err := appendRecord(cfg.Record, book.Build(uuid.New().String(), blackName, whiteName, game.Outcome())); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "recorded to %s\n", cfg.Record)
	}
	if playErr != nil && !errors.Is(playErr, context.Canceled) {
		fatal(playErr)
	}
}

// engineInput owns its USI session so main can close it.
type engineInput struct {
	*shogi.EngineInput
	session *shogi.Session
}

func (ei *engineInput) Close() error {
	return ei.session.Close()
}

func newInput(ctx context.Context, kind string, player shogi.Player, human shogi.Input, cfg shogi.Config) (shogi.Input, error) {
	switch kind {
	case "human":
		return human, nil
	case "engine":
		if cfg.Engine == "" {
			return nil, errors.New("engine path is required in config.json")
		}
		if _, err := os.Stat(cfg.Engine); err != nil {
			return nil, fmt.Errorf("engine binary not found at %s: %w", cfg.Engine, err)
		}
		session, err := shogi.StartSession(ctx, cfg.Engine)
		if err != nil {
			return nil, err
		}
		handshakeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := session.Handshake(handshakeCtx, cfg.EngineOptions); err != nil {
			session.Close()
			return nil, fmt.Errorf("%s engine handshake: %w", player, err)
		}
		return &engineInput{EngineInput: shogi.NewEngineInput(player, session, cfg.Millis), session: session}, nil
	default:
		return nil, fmt.Errorf("unknown player kind %q (want human or engine)", kind)
	}
}

func loadConfig(path string) (shogi.Config, error) {
	if path != "" {
		return shogi.LoadConfig(path)
	}
	found, _, err := shogi.FindConfigPath()
	if err != nil {
		return shogi.DefaultConfig(), nil
	}
	return shogi.LoadConfig(found)
}

// appendRecord rewrites path with its existing records plus record.
func appendRecord(path string, record shogi.GameRecord) error {
	var records []shogi.GameRecord
	if _, err := os.Stat(path); err == nil {
		existing, err := shogi.ReadParquet(path, 1)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		records = existing
	}
	records = append(records, record)
	return shogi.WriteRecords(path, records...)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
