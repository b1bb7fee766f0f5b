package server

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"shogi/pkg/shogi"
)

// Manager owns the running matches. Each match serialises its own moves;
// the manager lock only guards the index.
type Manager struct {
	mu      sync.RWMutex
	matches map[string]*Match
	opts    []shogi.GameOption

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager applies opts to every game it starts.
func NewManager(opts ...shogi.GameOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		matches: make(map[string]*Match),
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (gm *Manager) CreateGame(blackName, whiteName string) *Match {
	match := newMatch(uuid.New().String(), blackName, whiteName)

	gm.mu.Lock()
	gm.matches[match.ID] = match
	gm.mu.Unlock()

	gm.wg.Add(1)
	go func() {
		defer gm.wg.Done()
		if err := match.run(gm.ctx, gm.opts...); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("game %s: %v", match.ID, err)
		}
	}()
	return match
}

func (gm *Manager) Get(id string) (*Match, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	match, ok := gm.matches[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return match, nil
}

// IDs lists game ids in ascending order.
func (gm *Manager) IDs() []string {
	gm.mu.RLock()
	ids := maps.Keys(gm.matches)
	gm.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Close stops every game and returns their records in id order.
func (gm *Manager) Close() []shogi.GameRecord {
	gm.cancel()
	gm.wg.Wait()

	records := make([]shogi.GameRecord, 0, len(gm.matches))
	for _, id := range gm.IDs() {
		match, err := gm.Get(id)
		if err != nil {
			continue
		}
		records = append(records, match.Record())
	}
	return records
}
