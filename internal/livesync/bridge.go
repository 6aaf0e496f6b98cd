package livesync

import (
	"context"
	"sync"

	"github.com/chiptally/homegame-backend/internal/pkg/model"
	"github.com/rs/zerolog/log"
)

// Fetcher reads the current state of a game. The bridge always delivers
// a freshly fetched full record, never a diff.
type Fetcher interface {
	Get(ctx context.Context, gameId string) (*model.GameRecord, error)
}

// Publisher relays a change notification to other instances. May be nil
// when the process runs alone (tests, single-node dev).
type Publisher interface {
	PublishGameChanged(gameId string)
}

// Bridge fans committed game changes out to local subscribers. Delivery
// is at-least-once and unordered relative to concurrent writes: a local
// commit dispatches immediately and also round-trips through pubsub, so
// subscribers may see the same state twice and must treat every
// delivery as an idempotent full-state replacement.
type Bridge struct {
	fetcher   Fetcher
	publisher Publisher

	mu       sync.Mutex
	nextId   uint64
	watchers map[string]map[uint64]func(*model.GameRecord)
}

func NewBridge(fetcher Fetcher, publisher Publisher) *Bridge {
	return &Bridge{
		fetcher:   fetcher,
		publisher: publisher,
		watchers:  make(map[string]map[uint64]func(*model.GameRecord)),
	}
}

// Subscription is one registered observer. Subscriptions per game are
// independent: cancelling one never affects the others.
type Subscription struct {
	bridge *Bridge
	gameId string
	id     uint64
}

func (s *Subscription) Cancel() {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()

	callbacks, ok := s.bridge.watchers[s.gameId]
	if !ok {
		return
	}
	delete(callbacks, s.id)
	if len(callbacks) == 0 {
		delete(s.bridge.watchers, s.gameId)
	}
}

func (b *Bridge) Subscribe(gameId string, callback func(*model.GameRecord)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextId++
	if b.watchers[gameId] == nil {
		b.watchers[gameId] = make(map[uint64]func(*model.GameRecord))
	}
	b.watchers[gameId][b.nextId] = callback

	return &Subscription{bridge: b, gameId: gameId, id: b.nextId}
}

// GameChanged implements ledger.ChangeNotifier: called after every
// committed write.
func (b *Bridge) GameChanged(ctx context.Context, gameId string) {
	b.dispatch(ctx, gameId)
	if b.publisher != nil {
		b.publisher.PublishGameChanged(gameId)
	}
}

// HandleRemoteChange feeds a notification received from another
// instance into the local registry.
func (b *Bridge) HandleRemoteChange(ctx context.Context, gameId string) {
	b.dispatch(ctx, gameId)
}

func (b *Bridge) dispatch(ctx context.Context, gameId string) {
	b.mu.Lock()
	callbacks := make([]func(*model.GameRecord), 0, len(b.watchers[gameId]))
	for _, callback := range b.watchers[gameId] {
		callbacks = append(callbacks, callback)
	}
	b.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}

	record, err := b.fetcher.Get(ctx, gameId)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameId).Msg("cannot fetch game for live delivery")
		return
	}
	for _, callback := range callbacks {
		callback(record)
	}
}
