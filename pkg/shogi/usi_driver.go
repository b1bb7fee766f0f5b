package shogi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type ReplyKind int

const (
	ReplyOther ReplyKind = iota
	ReplyUSIOK
	ReplyReadyOK
	ReplyInfo
	ReplyBestMove
)

// Reply is one line written by a USI engine. Move is set for bestmove and
// Score for info lines that report one.
type Reply struct {
	Kind     ReplyKind
	Move     string
	Score    Score
	HasScore bool
}

// ParseReply classifies an engine output line.
func ParseReply(line string) (Reply, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Reply{}, errors.New("empty line")
	}
	switch fields[0] {
	case "usiok":
		return Reply{Kind: ReplyUSIOK}, nil
	case "readyok":
		return Reply{Kind: ReplyReadyOK}, nil
	case "bestmove":
		if len(fields) < 2 {
			return Reply{}, fmt.Errorf("bestmove without a move: %q", line)
		}
		return Reply{Kind: ReplyBestMove, Move: fields[1]}, nil
	case "info":
		score, ok := parseScore(fields)
		return Reply{Kind: ReplyInfo, Score: score, HasScore: ok}, nil
	}
	return Reply{Kind: ReplyOther}, nil
}

// Score is a USI evaluation from the side to move's point of view.
type Score struct {
	Kind  string
	Value int
}

func (s Score) String() string {
	if s.Kind == "cp" || s.Kind == "mate" {
		return fmt.Sprintf("%s %d", s.Kind, s.Value)
	}
	return "unknown"
}

func parseScore(fields []string) (Score, bool) {
	i := slices.Index(fields, "score")
	if i < 0 || i+2 >= len(fields) {
		return Score{}, false
	}
	kind := fields[i+1]
	if kind != "cp" && kind != "mate" {
		return Score{}, false
	}
	value, err := strconv.Atoi(fields[i+2])
	if err != nil {
		return Score{}, false
	}
	return Score{Kind: kind, Value: value}, true
}

// Session drives one USI engine process over its standard streams.
type Session struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	replies chan Reply
	quit    chan struct{}
	readErr error

	mu     sync.Mutex
	closed bool
}

// StartSession launches the engine at path. The process is killed when ctx
// is done.
func StartSession(ctx context.Context, path string, args ...string) (*Session, error) {
	if path == "" {
		return nil, errors.New("engine path is required")
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = filepath.Dir(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}
	s := &Session{
		cmd:     cmd,
		stdin:   stdin,
		replies: make(chan Reply, 64),
		quit:    make(chan struct{}),
	}
	go s.readLoop(stdout)
	return s, nil
}

// readLoop skips lines ParseReply rejects.
func (s *Session) readLoop(stdout io.Reader) {
	defer close(s.replies)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		reply, err := ParseReply(scanner.Text())
		if err != nil {
			continue
		}
		select {
		case s.replies <- reply:
		case <-s.quit:
			return
		}
	}
	s.readErr = scanner.Err()
}

func (s *Session) send(format string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("engine is closed")
	}
	_, err := fmt.Fprintf(s.stdin, format+"\n", args...)
	return err
}

func (s *Session) next(ctx context.Context) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case reply, ok := <-s.replies:
		if !ok {
			if s.readErr != nil {
				return Reply{}, fmt.Errorf("engine output: %w", s.readErr)
			}
			return Reply{}, errors.New("engine exited")
		}
		return reply, nil
	}
}

func (s *Session) await(ctx context.Context, kind ReplyKind) error {
	for {
		reply, err := s.next(ctx)
		if err != nil {
			return err
		}
		if reply.Kind == kind {
			return nil
		}
	}
}

// Close asks the engine to quit and kills it if it has not exited within
// three seconds.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	_, _ = io.WriteString(s.stdin, "quit\n")
	_ = s.stdin.Close()
	s.closed = true
	close(s.quit)
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		_ = s.cmd.Process.Kill()
		return errors.New("engine did not exit in time")
	}
}

// Handshake runs usi/isready, sending options in key order in between.
func (s *Session) Handshake(ctx context.Context, options map[string]string) error {
	if err := s.send("usi"); err != nil {
		return err
	}
	if err := s.await(ctx, ReplyUSIOK); err != nil {
		return err
	}
	names := maps.Keys(options)
	slices.Sort(names)
	for _, name := range names {
		if err := s.send("setoption name %s value %s", name, options[name]); err != nil {
			return err
		}
	}
	if err := s.send("isready"); err != nil {
		return err
	}
	if err := s.await(ctx, ReplyReadyOK); err != nil {
		return err
	}
	return s.send("usinewgame")
}

// BestMove searches the SFEN position for moveTimeMs and returns the
// engine's move with the last reported score.
func (s *Session) BestMove(ctx context.Context, sfen string, moveTimeMs int) (string, Score, error) {
	if moveTimeMs <= 0 {
		moveTimeMs = 1
	}
	if err := s.send("position sfen %s", sfen); err != nil {
		return "", Score{}, err
	}
	if err := s.send("go movetime %d", moveTimeMs); err != nil {
		return "", Score{}, err
	}
	var score Score
	for {
		reply, err := s.next(ctx)
		if err != nil {
			return "", Score{}, err
		}
		switch reply.Kind {
		case ReplyInfo:
			if reply.HasScore {
				score = reply.Score
			}
		case ReplyBestMove:
			return reply.Move, score, nil
		}
	}
}

// EngineInput plays one side by asking a USI engine for its best move.
type EngineInput struct {
	player     Player
	session    *Session
	moveTimeMs int
	lastScore  Score
}

func NewEngineInput(player Player, session *Session, moveTimeMs int) *EngineInput {
	return &EngineInput{player: player, session: session, moveTimeMs: moveTimeMs}
}

func (ei *EngineInput) Player() Player {
	return ei.player
}

// LastScore is the evaluation reported with the previous move.
func (ei *EngineInput) LastScore() Score {
	return ei.lastScore
}

func (ei *EngineInput) AskForNextMove(ctx context.Context, state BoardState) (string, error) {
	move, score, err := ei.session.BestMove(ctx, state.SFEN(), ei.moveTimeMs)
	if err != nil {
		return "", err
	}
	ei.lastScore = score
	switch move {
	case "resign":
		return "", ErrResign
	case "win":
		return "", io.EOF
	}
	// Promotions are played unpromoted.
	return strings.TrimSuffix(move, "+"), nil
}
