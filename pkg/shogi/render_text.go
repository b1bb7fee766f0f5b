package shogi

import (
	"fmt"
	"io"
	"strings"
)

var kanjiPieces = map[string]string{
	"P": "歩", "L": "香", "N": "桂", "S": "銀",
	"G": "金", "K": "玉", "B": "角", "R": "飛",
}

var fileHeader = " ９ ８ ７ ６ ５ ４ ３ ２ １"

var rankKanji = []string{"一", "二", "三", "四", "五", "六", "七", "八", "九"}

// TextRender draws KIF style board diagrams. White's pieces are prefixed
// with "v".
type TextRender struct {
	w io.Writer
}

func NewTextRender(w io.Writer) *TextRender {
	return &TextRender{w: w}
}

func (tr *TextRender) Refresh(state BoardState) {
	fmt.Fprint(tr.w, FormatBoard(state))
}

func (tr *TextRender) InvalidOperation(result Result) {
	fmt.Fprintf(tr.w, "rejected: %s\n", describeResult(result))
}

// FormatBoard returns the diagram for state, followed by the last move and
// the side to move.
func FormatBoard(state BoardState) string {
	var b strings.Builder
	b.WriteString(fileHeader + "\n")
	b.WriteString("+---------------------------+\n")
	for rank := 1; rank <= boardSize; rank++ {
		b.WriteString("|")
		for file := boardSize; file >= 1; file-- {
			sq := state.Squares[rank-1][file-1]
			if sq.Name == "" {
				b.WriteString(" ・")
				continue
			}
			name := kanjiPieces[sq.Name]
			if name == "" {
				name = sq.Name
			}
			if sq.Owner == White {
				b.WriteString("v" + name)
			} else {
				b.WriteString(" " + name)
			}
		}
		b.WriteString("|" + rankKanji[rank-1] + "\n")
	}
	b.WriteString("+---------------------------+\n")
	if state.LastMove != "" {
		fmt.Fprintf(&b, "last: %s\n", state.LastMove)
	}
	fmt.Fprintf(&b, "to move: %s (ply %d)\n", state.Turn, state.Ply+1)
	return b.String()
}

func describeResult(result Result) string {
	switch result {
	case NotPlayersTurn:
		return "not your turn"
	case NotPlayersPiece:
		return "no piece of yours on that square"
	case InvalidOperation:
		return "that piece cannot move there"
	default:
		return result.String()
	}
}
