package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"shogi/pkg/shogi"
)

func main() {
	inputDir := flag.String("input", "kif", "input directory for KIF files")
	outputPath := flag.String("output", "output.parquet", "output parquet file")
	processNum := flag.Int("process-num", 1, "number of parallel workers")
	flag.Parse()

	files, err := shogi.CollectKIF(*inputDir)
	if err != nil {
		fatal(err)
	}
	if len(files) == 0 {
		fatal(fmt.Errorf("no .kif files found in %s", *inputDir))
	}

	workers := *processNum
	if workers <= 0 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}
	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
	}

	stats, err := replayAll(files, *inputDir, *outputPath, workers)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "replayed %d files (%d truncated, %d failed) into %s\n",
		stats.replayed, stats.truncated, stats.failed, *outputPath)
}

type replayStats struct {
	replayed, truncated, failed int64
}

// replayAll replays files on workers goroutines and streams the records
// into one parquet file. A writer error is returned once every worker has
// finished.
func replayAll(files []string, root, outputPath string, workers int) (replayStats, error) {
	jobs := make(chan string)
	results := make(chan shogi.GameRecord, workers)
	writeErr := make(chan error, 1)
	go func() {
		err := shogi.WriteParquet(outputPath, results, int64(workers))
		// Keep workers unblocked after a failed write.
		for range results {
		}
		writeErr <- err
	}()

	var replayed, failed, truncated atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				record, replay, err := replayFile(path, root)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to replay %s: %v\n", path, err)
					failed.Add(1)
					continue
				}
				if replay.Truncated {
					truncated.Add(1)
				}
				replayed.Add(1)
				results <- record
			}
		}()
	}

	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	close(results)
	stats := replayStats{replayed: replayed.Load(), truncated: truncated.Load(), failed: failed.Load()}
	if err := <-writeErr; err != nil {
		return stats, fmt.Errorf("write %s: %w", outputPath, err)
	}
	return stats, nil
}

// replayFile plays a KIF game through the engine. A move the engine rejects
// marks the record "illegal" rather than failing the file.
func replayFile(path, root string) (shogi.GameRecord, *shogi.Replay, error) {
	replay, err := shogi.LoadReplay(path)
	if err != nil {
		return shogi.GameRecord{}, nil, err
	}
	book := &shogi.RecordBook{}
	game := shogi.NewGame(shogi.NewBoard(), nil, replay.Input(shogi.Black), replay.Input(shogi.White),
		shogi.WithMaxInvalid(1), shogi.WithRecorder(book))
	result := replay.Result
	if err := game.Start(context.Background()); err != nil {
		if !errors.Is(err, shogi.ErrTooManyInvalidMoves) {
			return shogi.GameRecord{}, nil, err
		}
		result = "illegal"
	}
	gameID, err := filepath.Rel(root, path)
	if err != nil {
		gameID = path
	}
	players := replay.Players
	return book.Build(filepath.ToSlash(gameID), players.BlackName, players.WhiteName, result), replay, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
