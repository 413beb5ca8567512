package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastPerRaffle(t *testing.T) {
	hub := NewHub()
	a, b := uuid.New(), uuid.New()

	chA, unsubA := hub.Subscribe(a)
	defer unsubA()
	chB, unsubB := hub.Subscribe(b)
	defer unsubB()

	require.NoError(t, hub.PublishRaffleChanged(context.Background(), a))

	select {
	case ev := <-chA:
		assert.Equal(t, TypeRaffleChanged, ev.Type)
		assert.Equal(t, a, ev.RaffleID)
		assert.NotZero(t, ev.TsUnix)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	select {
	case ev := <-chB:
		t.Fatalf("unexpected event for other raffle: %+v", ev)
	default:
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	id := uuid.New()

	ch, unsub := hub.Subscribe(id)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast(Event{Type: TypeRaffleChanged, RaffleID: id})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}

	assert.Equal(t, cap(ch), len(ch))
}

func TestHub_UnsubscribeAndClose(t *testing.T) {
	hub := NewHub()
	id := uuid.New()

	ch, unsub := hub.Subscribe(id)
	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)

	open, _ := hub.Subscribe(id)
	hub.Close()

	_, ok = <-open
	assert.False(t, ok)

	late, unsubLate := hub.Subscribe(id)
	unsubLate()
	_, ok = <-late
	assert.False(t, ok)
}

type fakeCache struct {
	invalidated []uuid.UUID
	err         error
}

func (f *fakeCache) InvalidateRaffle(_ context.Context, id uuid.UUID) error {
	f.invalidated = append(f.invalidated, id)
	return f.err
}

type fakePublisher struct {
	published []uuid.UUID
}

func (f *fakePublisher) PublishRaffleChanged(_ context.Context, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func TestChanges_RaffleChanged(t *testing.T) {
	id := uuid.New()

	cache := &fakeCache{err: errors.New("redis down")}
	pub := &fakePublisher{}

	NewChanges(cache, pub, nil).RaffleChanged(context.Background(), id)

	assert.Equal(t, []uuid.UUID{id}, cache.invalidated)
	assert.Equal(t, []uuid.UUID{id}, pub.published, "publish still happens when invalidation fails")

	var nilChanges *Changes
	assert.NotPanics(t, func() { nilChanges.RaffleChanged(context.Background(), id) })
	assert.NotPanics(t, func() { NewChanges(nil, nil, nil).RaffleChanged(context.Background(), id) })
}
