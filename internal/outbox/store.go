// Package outbox records accepted orders locally and relays them to Kafka,
// so an order is never lost when the broker is unreachable at checkout.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

var ErrEventNotFound = errors.New("outbox event not found")

type Event struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Store keeps pending events in the order_outbox table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// PublishOrderPlaced stores the event for the relay. It satisfies the
// checkout's publisher so orders are accepted even while Kafka is down.
func (s *Store) PublishOrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	return s.Enqueue(ctx, event.OrderID, domain.EventOrderPlaced, payload)
}

func (s *Store) Enqueue(ctx context.Context, aggregateID, eventType string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO order_outbox (aggregate_id, event_type, payload, created_at) VALUES (?, ?, ?, ?)`,
		aggregateID, eventType, payload, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}
	return nil
}

// Unprocessed returns up to limit pending events, oldest first.
func (s *Store) Unprocessed(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		   FROM order_outbox
		  WHERE processed_at IS NULL
		  ORDER BY id
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			created string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &created); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) MarkProcessed(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE order_outbox SET processed_at = ? WHERE id = ? AND processed_at IS NULL`,
		s.now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
