package main

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"shogi/pkg/shogi"
)

func copyOpening(t *testing.T, n int) (string, []string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "pkg", "shogi", "testdata", "opening.kif"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	dir := t.TempDir()
	files := make([]string, 0, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, "game"+string(rune('a'+i))+".kif")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		files = append(files, path)
	}
	return dir, files
}

func TestReplayAllWritesRecords(t *testing.T) {
	dir, files := copyOpening(t, 3)
	out := filepath.Join(t.TempDir(), "games.parquet")

	stats, err := replayAll(files, dir, out, 2)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if stats != (replayStats{replayed: 3}) {
		t.Fatalf("stats: got %+v", stats)
	}
	records, err := shogi.ReadParquet(out, 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ids []string
	for _, record := range records {
		ids = append(ids, record.GameID)
	}
	sort.Strings(ids)
	want := []string{"gamea.kif", "gameb.kif", "gamec.kif"}
	if len(ids) != len(want) {
		t.Fatalf("ids: got %v want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids: got %v want %v", ids, want)
		}
	}
}

func TestReplayAllReportsWriterError(t *testing.T) {
	dir, files := copyOpening(t, 3)
	// A directory cannot be opened as the output file.
	out := t.TempDir()

	done := make(chan error, 1)
	go func() {
		_, err := replayAll(files, dir, out, 1)
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected a write error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("replay did not return after the writer failed")
	}
}
