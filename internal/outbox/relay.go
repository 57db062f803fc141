package outbox

import (
	"context"
	"log/slog"
	"time"
)

// Sender forwards an encoded event to the broker.
type Sender interface {
	Send(ctx context.Context, key, eventType string, payload []byte) error
}

type pendingStore interface {
	Unprocessed(ctx context.Context, limit int) ([]Event, error)
	MarkProcessed(ctx context.Context, id int64) error
}

// Relay polls the outbox and publishes pending events in insertion order.
// An event that fails to send stays pending and is retried on the next tick.
type Relay struct {
	store  pendingStore
	sender Sender
	log    *slog.Logger
	tick   time.Duration
	batch  int
}

func NewRelay(store *Store, sender Sender, log *slog.Logger) *Relay {
	return newRelay(store, sender, log, time.Second)
}

func newRelay(store pendingStore, sender Sender, log *slog.Logger, tick time.Duration) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{store: store, sender: sender, log: log, tick: tick, batch: 100}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Flush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Flush publishes one batch and returns how many events were sent.
// It stops at the first send failure so later events never overtake it.
func (r *Relay) Flush(ctx context.Context) int {
	events, err := r.store.Unprocessed(ctx, r.batch)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to fetch outbox events", slog.Any("error", err))
		return 0
	}

	sent := 0
	for _, e := range events {
		if err := r.sender.Send(ctx, e.AggregateID, e.EventType, e.Payload); err != nil {
			r.log.WarnContext(ctx, "failed to publish outbox event",
				slog.Int64("event_id", e.ID),
				slog.String("aggregate_id", e.AggregateID),
				slog.Any("error", err))
			return sent
		}
		sent++
		if err := r.store.MarkProcessed(ctx, e.ID); err != nil {
			r.log.ErrorContext(ctx, "failed to mark outbox event processed",
				slog.Int64("event_id", e.ID), slog.Any("error", err))
		}
	}
	return sent
}
