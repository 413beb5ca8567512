package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const TypeRaffleChanged = "raffle_changed"

type Event struct {
	Type     string    `json:"type"`
	RaffleID uuid.UUID `json:"raffle_id"`
	TsUnix   int64     `json:"ts_unix"`
}

// Hub fans raffle events out to in-process subscribers. Slow subscribers
// miss events instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[chan Event]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan Event]struct{})}
}

// Subscribe returns a channel receiving events for raffleID and a function
// that unsubscribes and closes it.
func (h *Hub) Subscribe(raffleID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.subs[raffleID] == nil {
		h.subs[raffleID] = make(map[chan Event]struct{})
	}
	h.subs[raffleID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[raffleID][ch]; !ok {
				return
			}
			delete(h.subs[raffleID], ch)
			if len(h.subs[raffleID]) == 0 {
				delete(h.subs, raffleID)
			}
			close(ch)
		})
	}
}

// Close ends every subscription. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, chans := range h.subs {
		for ch := range chans {
			close(ch)
		}
		delete(h.subs, id)
	}
}

func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[ev.RaffleID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// PublishRaffleChanged lets the hub stand in for the redis publisher when
// running as a single instance.
func (h *Hub) PublishRaffleChanged(ctx context.Context, raffleID uuid.UUID) error {
	h.Broadcast(Event{Type: TypeRaffleChanged, RaffleID: raffleID, TsUnix: time.Now().Unix()})
	return nil
}

type Publisher interface {
	PublishRaffleChanged(ctx context.Context, raffleID uuid.UUID) error
}

type Invalidator interface {
	InvalidateRaffle(ctx context.Context, raffleID uuid.UUID) error
}

// Changes drops cached views of a raffle and announces that it changed.
// A nil *Changes does nothing.
type Changes struct {
	cache  Invalidator
	pub    Publisher
	logger *slog.Logger
}

func NewChanges(cache Invalidator, pub Publisher, logger *slog.Logger) *Changes {
	if logger == nil {
		logger = slog.Default()
	}
	return &Changes{cache: cache, pub: pub, logger: logger}
}

func (c *Changes) RaffleChanged(ctx context.Context, raffleID uuid.UUID) {
	if c == nil {
		return
	}

	if c.cache != nil {
		if err := c.cache.InvalidateRaffle(ctx, raffleID); err != nil {
			c.logger.Warn("cache invalidation failed", "raffle_id", raffleID, "error", err)
		}
	}

	if c.pub != nil {
		if err := c.pub.PublishRaffleChanged(ctx, raffleID); err != nil {
			c.logger.Warn("publish raffle change failed", "raffle_id", raffleID, "error", err)
		}
	}
}
