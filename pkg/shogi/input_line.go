package shogi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// LineInput reads one move per line, e.g. from a terminal. Blank lines are
// skipped, "resign" resigns the game and moves are case-insensitive.
type LineInput struct {
	player  Player
	scanner *bufio.Scanner
	prompt  io.Writer
}

// NewLineInput reads moves for player from r. When prompt is non-nil a
// prompt is written to it before every read.
func NewLineInput(player Player, r io.Reader, prompt io.Writer) *LineInput {
	return &LineInput{player: player, scanner: bufio.NewScanner(r), prompt: prompt}
}

func (li *LineInput) Player() Player {
	return li.player
}

// AskForNextMove blocks on the underlying reader; ctx is only checked
// between lines.
func (li *LineInput) AskForNextMove(ctx context.Context, state BoardState) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if li.prompt != nil {
			fmt.Fprintf(li.prompt, "%s move %d> ", li.player, state.Ply+1)
		}
		if !li.scanner.Scan() {
			if err := li.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		line := strings.ToLower(strings.TrimSpace(li.scanner.Text()))
		switch line {
		case "":
			continue
		case "resign", "投了":
			return "", ErrResign
		}
		return line, nil
	}
}

// SharedLineInputs returns inputs for both sides reading from the same
// stream, for two players at one terminal.
func SharedLineInputs(r io.Reader, prompt io.Writer) (black, white Input) {
	scanner := bufio.NewScanner(r)
	black = &LineInput{player: Black, scanner: scanner, prompt: prompt}
	white = &LineInput{player: White, scanner: scanner, prompt: prompt}
	return black, white
}
