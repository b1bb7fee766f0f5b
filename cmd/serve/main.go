package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shogi/pkg/server"
	"shogi/pkg/shogi"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default: search upwards from the working directory)")
	listen := flag.String("listen", "", "listen address (overrides config)")
	recordPath := flag.String("record", "", "write all games to this parquet file on shutdown (overrides config)")
	maxPlies := flag.Int("max-plies", -1, "end games after this many moves, 0 for no limit (overrides config)")
	flag.Parse()

	cfg := shogi.DefaultConfig()
	path := *configPath
	if path == "" {
		if found, _, err := shogi.FindConfigPath(); err == nil {
			path = found
		}
	}
	if path != "" {
		loaded, err := shogi.LoadConfig(path)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *recordPath != "" {
		cfg.Record = *recordPath
	}
	if *maxPlies >= 0 {
		cfg.MaxPlies = *maxPlies
	}

	manager := server.NewManager(shogi.WithMaxPlies(cfg.MaxPlies))
	app := server.NewApp(manager)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", cfg.Listen)
	if err := app.Listen(cfg.Listen); err != nil {
		fatal(err)
	}

	records := manager.Close()
	if cfg.Record != "" && len(records) > 0 {
		if err := shogi.WriteRecords(cfg.Record, records...); err != nil {
			fatal(err)
		}
		log.Printf("wrote %d games to %s", len(records), cfg.Record)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
