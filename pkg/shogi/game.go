package shogi

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrResign              = errors.New("player resigned")
	ErrTooManyInvalidMoves = errors.New("too many invalid moves")
)

// Input supplies moves for one side as origin+destination tokens ("1g1f").
// Returning io.EOF or ErrResign ends the game.
type Input interface {
	Player() Player
	AskForNextMove(ctx context.Context, state BoardState) (string, error)
}

// Render displays the board after each accepted move and reports rejected
// moves.
type Render interface {
	Refresh(state BoardState)
	InvalidOperation(result Result)
}

type Recorder interface {
	Record(ply int, player Player, notation string) error
}

type GameOption func(*Game)

// WithMaxInvalid stops the game after n consecutive rejected moves by the
// side to move. Zero means no limit.
func WithMaxInvalid(n int) GameOption {
	return func(g *Game) {
		g.maxInvalid = n
	}
}

// WithMaxPlies ends the game after n accepted moves. Zero means no limit.
func WithMaxPlies(n int) GameOption {
	return func(g *Game) {
		g.maxPlies = n
	}
}

func WithRecorder(r Recorder) GameOption {
	return func(g *Game) {
		g.recorder = r
	}
}

// Game alternates between the two inputs and drives the board.
type Game struct {
	board      *Board
	render     Render
	inputs     map[Player]Input
	recorder   Recorder
	maxInvalid int
	maxPlies   int
	outcome    string
}

func NewGame(board *Board, render Render, black, white Input, opts ...GameOption) *Game {
	g := &Game{
		board:  board,
		render: render,
		inputs: map[Player]Input{Black: black, White: white},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Board() *Board {
	return g.board
}

// Outcome describes how the last Start call ended.
func (g *Game) Outcome() string {
	return g.outcome
}

// Start resets the board and plays until an input runs out, a side resigns,
// the ply limit is reached or ctx is done. The side to move is asked again
// after every rejected move.
func (g *Game) Start(ctx context.Context) error {
	g.board.ResetBoard()
	g.outcome = "in_progress"
	g.refresh()

	invalid := 0
	for {
		if err := ctx.Err(); err != nil {
			g.outcome = "abort"
			return err
		}
		if g.maxPlies > 0 && g.board.Ply() >= g.maxPlies {
			g.outcome = "ply_limit"
			return nil
		}
		side := g.board.Turn()
		input := g.inputs[side]
		if input == nil {
			g.outcome = "abort"
			return nil
		}
		token, err := input.AskForNextMove(ctx, g.board.State())
		if errors.Is(err, io.EOF) {
			g.outcome = "abort"
			return nil
		}
		if errors.Is(err, ErrResign) {
			g.outcome = side.Opponent().String() + "_win"
			return nil
		}
		if err != nil {
			g.outcome = "abort"
			return fmt.Errorf("%s input: %w", side, err)
		}

		result := g.play(input.Player(), token)
		if result != ValidOperation {
			if g.render != nil {
				g.render.InvalidOperation(result)
			}
			invalid++
			if g.maxInvalid > 0 && invalid >= g.maxInvalid {
				g.outcome = "abort"
				return fmt.Errorf("%s: %w", side, ErrTooManyInvalidMoves)
			}
			continue
		}
		invalid = 0
		if g.recorder != nil {
			if err := g.recorder.Record(g.board.Ply(), side, g.board.LastNotation()); err != nil {
				g.outcome = "abort"
				return fmt.Errorf("record ply %d: %w", g.board.Ply(), err)
			}
		}
		g.refresh()
	}
}

// play treats a malformed token as an invalid operation.
func (g *Game) play(player Player, token string) Result {
	from, to, err := ParseMoveToken(token)
	if err != nil {
		return InvalidOperation
	}
	return g.board.Move(player, from, to)
}

func (g *Game) refresh() {
	if g.render != nil {
		g.render.Refresh(g.board.State())
	}
}
