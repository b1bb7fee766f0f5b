package server

import (
	"context"
	"errors"
	"sync"

	"shogi/pkg/shogi"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameOver     = errors.New("game is over")
	ErrNotYourTurn  = errors.New("not your turn")
)

// Subscriber receives a GameView after every accepted move.
type Subscriber interface {
	WriteJSON(v interface{}) error
}

// GameView is the JSON shape of a game served over HTTP and websocket.
type GameView struct {
	ID      string           `json:"id"`
	Black   string           `json:"black"`
	White   string           `json:"white"`
	Outcome string           `json:"outcome"`
	SFEN    string           `json:"sfen"`
	State   shogi.BoardState `json:"state"`
}

// MoveReply is what a submitted move resolves to.
type MoveReply struct {
	Result  shogi.Result `json:"result"`
	Outcome string       `json:"outcome"`
	State   GameView     `json:"game"`
}

type moveRequest struct {
	player shogi.Player
	move   string
	resign bool
	reply  chan moveReply
}

type moveReply struct {
	result shogi.Result
	err    error
}

// Match runs one shogi.Game on its own goroutine. Moves reach the game
// through requests; the board is only touched by that goroutine.
type Match struct {
	ID        string
	BlackName string
	WhiteName string

	requests chan moveRequest
	done     chan struct{}

	mu      sync.Mutex
	state   shogi.BoardState
	outcome string
	book    shogi.RecordBook

	subMu sync.Mutex
	subs  map[Subscriber]struct{}
}

func newMatch(id, blackName, whiteName string) *Match {
	return &Match{
		ID:        id,
		BlackName: blackName,
		WhiteName: whiteName,
		requests:  make(chan moveRequest),
		done:      make(chan struct{}),
		outcome:   "in_progress",
		state:     shogi.NewBoard().State(),
		subs:      map[Subscriber]struct{}{},
	}
}

func (m *Match) run(ctx context.Context, opts ...shogi.GameOption) error {
	d := &driver{match: m}
	gameOpts := append([]shogi.GameOption{}, opts...)
	gameOpts = append(gameOpts, shogi.WithRecorder(d))
	game := shogi.NewGame(shogi.NewBoard(), d, d, d, gameOpts...)
	err := game.Start(ctx)

	m.mu.Lock()
	m.outcome = game.Outcome()
	m.mu.Unlock()
	close(m.done)
	m.broadcast()
	return err
}

// View returns a consistent snapshot of the game.
func (m *Match) View() GameView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return GameView{
		ID:      m.ID,
		Black:   m.BlackName,
		White:   m.WhiteName,
		Outcome: m.outcome,
		SFEN:    m.state.SFEN(),
		State:   m.state,
	}
}

func (m *Match) Outcome() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Record snapshots the moves played so far.
func (m *Match) Record() shogi.GameRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.Build(m.ID, m.BlackName, m.WhiteName, m.outcome)
}

// Move submits token on behalf of player and waits for the game to judge it.
func (m *Match) Move(ctx context.Context, player shogi.Player, token string) (MoveReply, error) {
	return m.submit(ctx, moveRequest{player: player, move: token})
}

// Resign ends the game in the opponent's favour. Only the side to move may
// resign.
func (m *Match) Resign(ctx context.Context, player shogi.Player) (MoveReply, error) {
	return m.submit(ctx, moveRequest{player: player, resign: true})
}

func (m *Match) submit(ctx context.Context, req moveRequest) (MoveReply, error) {
	req.reply = make(chan moveReply, 1)
	select {
	case m.requests <- req:
	case <-m.done:
		return MoveReply{}, ErrGameOver
	case <-ctx.Done():
		return MoveReply{}, ctx.Err()
	}

	var reply moveReply
	select {
	case reply = <-req.reply:
	case <-m.done:
		select {
		case reply = <-req.reply:
		default:
		}
	case <-ctx.Done():
		return MoveReply{}, ctx.Err()
	}
	if reply.err != nil {
		return MoveReply{}, reply.err
	}
	view := m.View()
	return MoveReply{Result: reply.result, Outcome: view.Outcome, State: view}, nil
}

func (m *Match) Subscribe(s Subscriber) {
	m.subMu.Lock()
	m.subs[s] = struct{}{}
	m.subMu.Unlock()
}

func (m *Match) Unsubscribe(s Subscriber) {
	m.subMu.Lock()
	delete(m.subs, s)
	m.subMu.Unlock()
}

func (m *Match) broadcast() {
	msg := newMessage(MessageTypeGameState, m.View())
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for s := range m.subs {
		if err := s.WriteJSON(msg); err != nil {
			delete(m.subs, s)
		}
	}
}

// driver is the Input, Render and Recorder of a Match's game. Every method
// runs on the game goroutine.
type driver struct {
	match   *Match
	current shogi.Player
	pending *moveRequest
}

// Player is the sender of the move being judged, so a move sent out of turn
// is rejected by the board.
func (d *driver) Player() shogi.Player {
	return d.current
}

func (d *driver) AskForNextMove(ctx context.Context, state shogi.BoardState) (string, error) {
	for {
		var req moveRequest
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case req = <-d.match.requests:
		}
		if req.resign {
			if req.player != state.Turn {
				req.reply <- moveReply{err: ErrNotYourTurn}
				continue
			}
			// Answered once the game has finished.
			return "", shogi.ErrResign
		}
		d.current = req.player
		d.pending = &req
		return req.move, nil
	}
}

// Refresh publishes the new position before the mover is answered. The
// opening refresh has no mover and is not broadcast.
func (d *driver) Refresh(state shogi.BoardState) {
	d.match.mu.Lock()
	d.match.state = state
	d.match.mu.Unlock()
	if d.pending == nil {
		return
	}
	d.match.broadcast()
	d.answer(shogi.ValidOperation)
}

func (d *driver) InvalidOperation(result shogi.Result) {
	d.answer(result)
}

func (d *driver) Record(ply int, player shogi.Player, notation string) error {
	d.match.mu.Lock()
	defer d.match.mu.Unlock()
	return d.match.book.Record(ply, player, notation)
}

func (d *driver) answer(result shogi.Result) {
	if d.pending == nil {
		return
	}
	d.pending.reply <- moveReply{result: result}
	d.pending = nil
}
