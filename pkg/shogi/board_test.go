package shogi_test

import (
	"reflect"
	"testing"

	"shogi/pkg/shogi"
)

const startSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

func TestBoardMoveScenarios(t *testing.T) {
	cases := []struct {
		name     string
		player   shogi.Player
		from, to string
		want     shogi.Result
	}{
		{"white before black", shogi.White, "1c", "1d", shogi.NotPlayersTurn},
		{"opponent piece", shogi.Black, "1c", "1d", shogi.NotPlayersPiece},
		{"empty square", shogi.Black, "5e", "5d", shogi.NotPlayersPiece},
		{"friendly occupation", shogi.Black, "2h", "2g", shogi.InvalidOperation},
		{"illegal pattern", shogi.Black, "1g", "1e", shogi.InvalidOperation},
	}
	for _, tc := range cases {
		board := shogi.NewBoard()
		before := board.State()
		got := board.Move(tc.player, sq(t, tc.from), sq(t, tc.to))
		if got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
		if board.State() != before {
			t.Fatalf("%s: rejected move changed the board", tc.name)
		}
		if board.Turn() != shogi.Black || board.Ply() != 0 {
			t.Fatalf("%s: turn/ply changed: %s %d", tc.name, board.Turn(), board.Ply())
		}
	}
}

func TestBoardValidMove(t *testing.T) {
	board := shogi.NewBoard()
	before := board.State()
	if got := board.Move(shogi.Black, sq(t, "1g"), sq(t, "1f")); got != shogi.ValidOperation {
		t.Fatalf("move: got %s want ValidOperation", got)
	}
	if _, ok := board.PieceAt(sq(t, "1g")); ok {
		t.Fatalf("1g should be empty")
	}
	piece, ok := board.PieceAt(sq(t, "1f"))
	if !ok || piece.ShortName() != "P" || piece.Owner() != shogi.Black {
		t.Fatalf("1f: got %+v %v want black pawn", piece, ok)
	}
	if piece.Position() != sq(t, "1f") {
		t.Fatalf("piece position: got %s want 1f", piece.Position())
	}
	if board.Turn() != shogi.White {
		t.Fatalf("turn: got %s want white", board.Turn())
	}
	if board.LastNotation() != "P1g-1f" {
		t.Fatalf("notation: got %s want P1g-1f", board.LastNotation())
	}

	after := board.State()
	changed := 0
	for r := 0; r < 9; r++ {
		for f := 0; f < 9; f++ {
			if before.Squares[r][f] != after.Squares[r][f] {
				changed++
			}
		}
	}
	if changed != 2 {
		t.Fatalf("changed squares: got %d want 2", changed)
	}
}

func TestBoardCapture(t *testing.T) {
	board := shogi.NewBoard()
	moves := []struct {
		player   shogi.Player
		from, to string
	}{
		{shogi.Black, "7g", "7f"},
		{shogi.White, "3c", "3d"},
		{shogi.Black, "8h", "2b"},
	}
	for _, m := range moves {
		if got := board.Move(m.player, sq(t, m.from), sq(t, m.to)); got != shogi.ValidOperation {
			t.Fatalf("%s %s%s: got %s", m.player, m.from, m.to, got)
		}
	}
	if got := board.Captured(shogi.Black); !reflect.DeepEqual(got, []string{"B"}) {
		t.Fatalf("captured: got %v want [B]", got)
	}
	if countPieces(board.State(), shogi.White) != 19 || countPieces(board.State(), shogi.Black) != 20 {
		t.Fatalf("unexpected piece counts after capture")
	}
	if got := board.Move(shogi.White, sq(t, "3a"), sq(t, "2b")); got != shogi.ValidOperation {
		t.Fatalf("recapture: got %s", got)
	}
	if got := board.Captured(shogi.White); !reflect.DeepEqual(got, []string{"B"}) {
		t.Fatalf("white captured: got %v want [B]", got)
	}
	if countPieces(board.State(), shogi.Black) != 19 {
		t.Fatalf("black should have lost its bishop")
	}
}

func countPieces(state shogi.BoardState, owner shogi.Player) int {
	n := 0
	for r := 0; r < 9; r++ {
		for f := 0; f < 9; f++ {
			if cell := state.Squares[r][f]; cell.Name != "" && cell.Owner == owner {
				n++
			}
		}
	}
	return n
}

func TestResetBoard(t *testing.T) {
	board := shogi.NewBoard()
	fresh := board.State()
	board.Move(shogi.Black, sq(t, "7g"), sq(t, "7f"))
	board.ResetBoard()
	if board.State() != fresh {
		t.Fatalf("reset did not restore the starting position")
	}
	if len(board.Captured(shogi.Black)) != 0 {
		t.Fatalf("reset kept captured pieces")
	}
}

func TestBoardSFEN(t *testing.T) {
	board := shogi.NewBoard()
	if got := board.State().SFEN(); got != startSFEN {
		t.Fatalf("start sfen: got %s want %s", got, startSFEN)
	}
	board.Move(shogi.Black, sq(t, "7g"), sq(t, "7f"))
	want := "lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 2"
	if got := board.State().SFEN(); got != want {
		t.Fatalf("sfen after 7g7f: got %s want %s", got, want)
	}
}

func TestBoardStateAt(t *testing.T) {
	state := shogi.NewBoard().State()
	got, ok := state.At(sq(t, "5a"))
	if !ok || got.Name != "K" || got.Owner != shogi.White {
		t.Fatalf("5a: got %+v want white king", got)
	}
	if _, ok := state.At(sq(t, "5e")); ok {
		t.Fatalf("5e should be empty")
	}
	if _, ok := state.At(shogi.Coordinate{File: 10, Rank: 1}); ok {
		t.Fatalf("off-board square reported occupied")
	}
}
