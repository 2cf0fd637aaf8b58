package feedback

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/onco-triage-server/internal/domain"
)

// BreakerSettings configures the circuit breaker around a networked store.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// BreakerStore guards a Store with a circuit breaker so a failing database
// fails fast instead of stalling every feedback request.
type BreakerStore struct {
	next    Store
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps next with a circuit breaker.
func NewBreakerStore(next Store, settings BreakerSettings, logger *logrus.Logger) *BreakerStore {
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 3
	}
	if settings.Interval == 0 {
		settings.Interval = 30 * time.Second
	}
	if settings.Timeout == 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}

	cbSettings := gobreaker.Settings{
		Name:        "FeedbackStore",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		// A rejected review says nothing about backend health.
		IsSuccessful: func(err error) bool {
			var verr *domain.ValidationError
			return err == nil || errors.As(err, &verr)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &BreakerStore{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// State returns the breaker's current state.
func (b *BreakerStore) State() gobreaker.State {
	return b.breaker.State()
}

func (b *BreakerStore) run(op func() error) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	return err
}

// Save stores or updates feedback through the breaker.
func (b *BreakerStore) Save(ctx context.Context, feedback *Feedback) error {
	return b.run(func() error { return b.next.Save(ctx, feedback) })
}

// Get retrieves feedback through the breaker.
func (b *BreakerStore) Get(ctx context.Context, reportID string) (*Feedback, error) {
	var fb *Feedback
	err := b.run(func() error {
		var err error
		fb, err = b.next.Get(ctx, reportID)
		return err
	})
	return fb, err
}

// List lists feedback through the breaker.
func (b *BreakerStore) List(ctx context.Context, limit, offset int) ([]*Feedback, error) {
	var all []*Feedback
	err := b.run(func() error {
		var err error
		all, err = b.next.List(ctx, limit, offset)
		return err
	})
	return all, err
}

// Count counts feedback through the breaker.
func (b *BreakerStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := b.run(func() error {
		var err error
		n, err = b.next.Count(ctx)
		return err
	})
	return n, err
}

// Delete removes feedback through the breaker.
func (b *BreakerStore) Delete(ctx context.Context, id int64) error {
	return b.run(func() error { return b.next.Delete(ctx, id) })
}

// ExportJSON exports through the breaker.
func (b *BreakerStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return b.run(func() error { return b.next.ExportJSON(ctx, writer) })
}

// ImportJSON imports through the breaker.
func (b *BreakerStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	err = b.run(func() error {
		var innerErr error
		imported, skipped, innerErr = b.next.ImportJSON(ctx, reader)
		return innerErr
	})
	return imported, skipped, err
}

// Ping checks the backend through the breaker.
func (b *BreakerStore) Ping(ctx context.Context) error {
	return b.run(func() error { return b.next.Ping(ctx) })
}

// Close closes the wrapped store. It bypasses the breaker.
func (b *BreakerStore) Close() error {
	return b.next.Close()
}
