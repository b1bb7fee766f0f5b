package shogi_test

import (
	"bytes"
	"strings"
	"testing"

	"shogi/pkg/shogi"
)

func TestFormatBoardStart(t *testing.T) {
	out := shogi.FormatBoard(shogi.NewBoard().State())
	lines := strings.Split(out, "\n")
	if lines[2] != "|v香v桂v銀v金v玉v金v銀v桂v香|一" {
		t.Fatalf("rank 1: got %q", lines[2])
	}
	if lines[10] != "| 香 桂 銀 金 玉 金 銀 桂 香|九" {
		t.Fatalf("rank 9: got %q", lines[10])
	}
	if lines[6] != "| ・ ・ ・ ・ ・ ・ ・ ・ ・|五" {
		t.Fatalf("rank 5: got %q", lines[6])
	}
	if !strings.Contains(out, "to move: black (ply 1)") {
		t.Fatalf("missing turn line in %q", out)
	}
}

func TestTextRender(t *testing.T) {
	var buf bytes.Buffer
	render := shogi.NewTextRender(&buf)
	board := shogi.NewBoard()
	board.Move(shogi.Black, sq(t, "7g"), sq(t, "7f"))
	render.Refresh(board.State())
	render.InvalidOperation(shogi.NotPlayersTurn)
	out := buf.String()
	if !strings.Contains(out, "last: P7g-7f") {
		t.Fatalf("missing last move in %q", out)
	}
	if !strings.Contains(out, "rejected: not your turn") {
		t.Fatalf("missing rejection in %q", out)
	}
}
