package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	c "github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/domain"
	r "github.com/fjod/go_storefront/internal/repository"
)

const GroupID = "cart-service-consumer"

// readBackoff is the pause after a failed read before trying again.
const readBackoff = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller empties a user's cart once their order has been placed.
type Poller struct {
	repo    r.CartRepository
	cache   c.CartCache
	reader  messageReader
	log     *slog.Logger
	backoff time.Duration
}

func NewPoller(repo r.CartRepository, cache c.CartCache, log *slog.Logger, topic string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return newWithReader(repo, cache, reader, log)
}

func newWithReader(repo r.CartRepository, cache c.CartCache, reader messageReader, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{repo: repo, cache: cache, reader: reader, log: log, backoff: readBackoff}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				p.log.Error("error reading message", slog.Any("error", err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
			continue
		}
		if err := p.handle(ctx, m); err != nil {
			p.log.Error("failed to handle order event",
				slog.String("key", string(m.Key)),
				slog.Int64("offset", m.Offset),
				slog.Any("error", err))
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error("error closing reader", slog.Any("error", err))
	}
}

func (p *Poller) handle(ctx context.Context, m kafka.Message) error {
	if eventType := header(m, "event_type"); eventType != "" && eventType != domain.EventOrderPlaced {
		return nil
	}

	var event domain.OrderPlaced
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("error parsing message: %w", err)
	}
	if event.UserID == "" {
		return errors.New("missing user_id")
	}

	if err := p.repo.DeleteCart(ctx, event.UserID); err != nil && !errors.Is(err, r.ErrCartNotFound) {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if err := p.cache.Delete(ctx, event.UserID); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}

	p.log.InfoContext(ctx, "cart cleared after order",
		slog.String("order_id", event.OrderID),
		slog.String("user_id", event.UserID))
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
