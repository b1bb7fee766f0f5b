package shogi

import (
	"fmt"
	"strings"
)

// Result classifies the outcome of Board.Move.
type Result int

const (
	ValidOperation Result = iota
	NotPlayersTurn
	NotPlayersPiece
	InvalidOperation
)

func (r Result) String() string {
	switch r {
	case ValidOperation:
		return "ValidOperation"
	case NotPlayersTurn:
		return "NotPlayersTurn"
	case NotPlayersPiece:
		return "NotPlayersPiece"
	case InvalidOperation:
		return "InvalidOperation"
	default:
		return "unknown"
	}
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Board owns the pieces and whose turn it is. It is not safe for concurrent
// use; callers serialise Move calls.
type Board struct {
	squares      [boardSize][boardSize]*Piece
	turn         Player
	ply          int
	lastNotation string
	captured     map[Player][]string
}

type placement struct {
	square string
	piece  string
}

// Black's half of the standard layout; White's half is the 180 degree
// rotation.
var standardLayout = []placement{
	{"9i", "L"}, {"8i", "N"}, {"7i", "S"}, {"6i", "G"}, {"5i", "K"},
	{"4i", "G"}, {"3i", "S"}, {"2i", "N"}, {"1i", "L"},
	{"8h", "B"}, {"2h", "R"},
	{"9g", "P"}, {"8g", "P"}, {"7g", "P"}, {"6g", "P"}, {"5g", "P"},
	{"4g", "P"}, {"3g", "P"}, {"2g", "P"}, {"1g", "P"},
}

func NewBoard() *Board {
	b := &Board{}
	b.ResetBoard()
	return b
}

// ResetBoard restores the standard starting position with Black to move.
func (b *Board) ResetBoard() {
	b.squares = [boardSize][boardSize]*Piece{}
	b.turn = Black
	b.ply = 0
	b.lastNotation = ""
	b.captured = map[Player][]string{Black: nil, White: nil}
	for _, p := range standardLayout {
		sq := mustCoordinate(p.square)
		b.setPiece(sq, newCatalogPiece(p.piece, Black, sq))
		rotated := Coordinate{File: boardSize + 1 - sq.File, Rank: boardSize + 1 - sq.Rank}
		b.setPiece(rotated, newCatalogPiece(p.piece, White, rotated))
	}
}

// Move validates and applies a move for player. A rejected move leaves the
// board untouched.
func (b *Board) Move(player Player, from, to Coordinate) Result {
	if player != b.turn {
		return NotPlayersTurn
	}
	piece := b.pieceAt(from)
	if piece == nil || piece.owner != player {
		return NotPlayersPiece
	}
	target := b.pieceAt(to)
	if target != nil && target.owner == player {
		return InvalidOperation
	}
	if !piece.IsMoveLegal(to) {
		return InvalidOperation
	}
	if target != nil {
		b.captured[player] = append(b.captured[player], target.shortName)
	}
	b.setPiece(from, nil)
	b.setPiece(to, piece)
	b.lastNotation = piece.Move(to)
	b.ply++
	b.turn = b.turn.Opponent()
	return ValidOperation
}

func (b *Board) Turn() Player {
	return b.turn
}

// Ply is the number of accepted moves since the last reset.
func (b *Board) Ply() int {
	return b.ply
}

func (b *Board) LastNotation() string {
	return b.lastNotation
}

// Captured lists the short names of the pieces player has taken, in order.
func (b *Board) Captured(player Player) []string {
	out := make([]string, len(b.captured[player]))
	copy(out, b.captured[player])
	return out
}

// PieceAt returns a copy of the piece on c.
func (b *Board) PieceAt(c Coordinate) (Piece, bool) {
	piece := b.pieceAt(c)
	if piece == nil {
		return Piece{}, false
	}
	return *piece, true
}

func (b *Board) pieceAt(c Coordinate) *Piece {
	if !c.Valid() {
		return nil
	}
	return b.squares[c.Rank-1][c.File-1]
}

func (b *Board) setPiece(c Coordinate, piece *Piece) {
	if !c.Valid() {
		return
	}
	b.squares[c.Rank-1][c.File-1] = piece
}

// Square is one cell of a BoardState; an empty Name means no piece.
type Square struct {
	Name  string `json:"name,omitempty"`
	Owner Player `json:"owner"`
}

// BoardState is a comparable snapshot of a Board, indexed [rank-1][file-1].
type BoardState struct {
	Turn     Player                       `json:"turn"`
	Ply      int                          `json:"ply"`
	LastMove string                       `json:"lastMove"`
	Squares  [boardSize][boardSize]Square `json:"squares"`
}

func (b *Board) State() BoardState {
	state := BoardState{Turn: b.turn, Ply: b.ply, LastMove: b.lastNotation}
	for r := 0; r < boardSize; r++ {
		for f := 0; f < boardSize; f++ {
			if piece := b.squares[r][f]; piece != nil {
				state.Squares[r][f] = Square{Name: piece.shortName, Owner: piece.owner}
			}
		}
	}
	return state
}

func (s BoardState) At(c Coordinate) (Square, bool) {
	if !c.Valid() {
		return Square{}, false
	}
	sq := s.Squares[c.Rank-1][c.File-1]
	return sq, sq.Name != ""
}

// SFEN renders the position as "<board> <b|w> - <move number>". Hands are
// always empty because captured pieces never return to play.
func (s BoardState) SFEN() string {
	rows := make([]string, 0, boardSize)
	for rank := 1; rank <= boardSize; rank++ {
		rows = append(rows, s.rankToSFEN(rank))
	}
	turn := "b"
	if s.Turn == White {
		turn = "w"
	}
	return fmt.Sprintf("%s %s - %d", strings.Join(rows, "/"), turn, s.Ply+1)
}

func (s BoardState) rankToSFEN(rank int) string {
	var b strings.Builder
	empty := 0
	flushEmpty := func() {
		if empty > 0 {
			b.WriteString(fmt.Sprintf("%d", empty))
			empty = 0
		}
	}
	for file := boardSize; file >= 1; file-- {
		sq := s.Squares[rank-1][file-1]
		if sq.Name == "" {
			empty++
			continue
		}
		flushEmpty()
		text := sq.Name
		if sq.Owner == White {
			text = strings.ToLower(text)
		}
		b.WriteString(text)
	}
	flushEmpty()
	return b.String()
}
