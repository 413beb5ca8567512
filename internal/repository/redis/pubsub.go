package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/events"
	"github.com/redis/go-redis/v9"
)

// EventsPubSub carries raffle change notifications between instances so
// every node can push them to its own stream subscribers.
type EventsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewEventsPubSub(rdb *redis.Client) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		channel: ChannelRafflesChanged(),
	}
}

func (p *EventsPubSub) PublishRaffleChanged(ctx context.Context, raffleID uuid.UUID) error {
	msg := events.Event{
		Type:     events.TypeRaffleChanged,
		RaffleID: raffleID,
		TsUnix:   time.Now().Unix(),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks delivering every well-formed message to handler until ctx
// is done or the subscription closes.
func (p *EventsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, ev events.Event)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev events.Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.RaffleID != uuid.Nil {
				handler(ctx, ev)
			}
		}
	}
}
