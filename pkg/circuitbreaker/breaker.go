package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Settings tunes when the breaker opens and how long it stays open.
type Settings struct {
	Name             string
	MaxFailures      uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		MaxFailures:      5,
		OpenTimeout:      10 * time.Second,
		HalfOpenRequests: 1,
	}
}

// Breaker guards calls to a dependency and fails fast while it is unhealthy.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func New(s Settings, log *slog.Logger) *Breaker {
	if log == nil {
		log = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &Breaker{cb: cb}
}

// State reports the current breaker state ("closed", "open", "half-open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Execute runs fn through the breaker. The ignore predicate marks errors
// that are answers rather than failures (e.g. not found) so they do not trip it.
func Execute[T any](b *Breaker, fn func() (T, error), ignore func(error) bool) (T, error) {
	var passthrough error
	res, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		if err != nil && ignore != nil && ignore(err) {
			passthrough = err
			return v, nil
		}
		return v, err
	})
	if passthrough != nil {
		var zero T
		if v, ok := res.(T); ok {
			return v, passthrough
		}
		return zero, passthrough
	}
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
