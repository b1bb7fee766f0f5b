package server

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"shogi/pkg/shogi"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	messages []Message
}

func (fs *fakeSubscriber) WriteJSON(v interface{}) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.messages = append(fs.messages, v.(Message))
	return nil
}

func (fs *fakeSubscriber) count() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.messages)
}

func TestMatchBroadcastsAcceptedMoves(t *testing.T) {
	manager := NewManager()
	defer manager.Close()
	match := manager.CreateGame("alice", "bob")
	sub := &fakeSubscriber{}
	match.Subscribe(sub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply, err := match.Move(ctx, shogi.White, "3c3d")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if reply.Result != shogi.NotPlayersTurn {
		t.Fatalf("result: got %s want NotPlayersTurn", reply.Result)
	}
	if sub.count() != 0 {
		t.Fatalf("rejected move was broadcast")
	}
	if _, err := match.Move(ctx, shogi.Black, "7g7f"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("broadcasts: got %d want 1", sub.count())
	}
	var view GameView
	if err := json.Unmarshal(sub.messages[0].Payload, &view); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if view.State.LastMove != "P7g-7f" || sub.messages[0].Type != MessageTypeGameState {
		t.Fatalf("unexpected broadcast: %s %+v", sub.messages[0].Type, view.State)
	}
}

func TestManagerCloseReturnsRecords(t *testing.T) {
	manager := NewManager(shogi.WithMaxPlies(2))
	first := manager.CreateGame("alice", "bob")
	manager.CreateGame("carol", "dave")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := first.Move(ctx, shogi.Black, "7g7f"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := first.Move(ctx, shogi.White, "3c3d"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := first.Move(ctx, shogi.Black, "2g2f"); err != ErrGameOver {
		t.Fatalf("move past ply limit: got %v want ErrGameOver", err)
	}
	if first.Outcome() != "ply_limit" {
		t.Fatalf("outcome: got %s want ply_limit", first.Outcome())
	}

	records := manager.Close()
	if len(records) != 2 {
		t.Fatalf("records: got %d want 2", len(records))
	}
	for _, record := range records {
		if record.GameID != first.ID {
			if record.Result != "abort" || record.PlyCount != 0 {
				t.Fatalf("idle game record: got %+v", record)
			}
			continue
		}
		if record.PlyCount != 2 || record.Moves[1].Notation != "P3c-3d" {
			t.Fatalf("played game record: got %+v", record)
		}
	}
}

func TestHandleMessage(t *testing.T) {
	manager := NewManager()
	defer manager.Close()
	match := manager.CreateGame("alice", "bob")

	reply, err := handleMessage(match, []byte(`{"type":"move","payload":{"player":"black","move":"7g7f"}}`))
	if err != nil {
		t.Fatalf("move message: %v", err)
	}
	if reply.Result != shogi.ValidOperation || reply.State.State.Ply != 1 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if _, err := handleMessage(match, []byte(`{"type":"move","payload":{"player":"white","move":"3c3"}}`)); err == nil {
		t.Fatalf("expected error for malformed move")
	}
	if _, err := handleMessage(match, []byte(`{"type":"draw","payload":{"player":"white"}}`)); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	reply, err = handleMessage(match, []byte(`{"type":"resign","payload":{"player":"white"}}`))
	if err != nil {
		t.Fatalf("resign message: %v", err)
	}
	if reply.Outcome != "black_win" {
		t.Fatalf("outcome: got %s want black_win", reply.Outcome)
	}
}
