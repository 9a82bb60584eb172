package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker refuses a call.
var ErrCircuitOpen = errors.New("chain: circuit open")

// BreakerOptions configures a Breaker.
type BreakerOptions struct {
	Name        string
	MaxRetries  int           // retries after the first attempt
	RetryDelay  time.Duration // delay between attempts
	OpenTimeout time.Duration // how long the breaker stays open
	Logger      zerolog.Logger
}

// Breaker wraps collaborator calls with a circuit breaker and bounded
// retries. A run of consecutive failures opens the circuit and callers
// fail fast until the open timeout elapses.
type Breaker struct {
	cb         *gobreaker.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewBreaker creates a Breaker.
func NewBreaker(opts BreakerOptions) *Breaker {
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Breaker{
		cb:         gobreaker.NewCircuitBreaker(settings),
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
	}
}

// Do runs fn through the breaker, retrying up to MaxRetries times on
// failure. An open circuit returns ErrCircuitOpen immediately without
// consuming retries.
func (b *Breaker) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 && b.retryDelay > 0 {
			select {
			case <-time.After(b.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		_, err := b.cb.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s: %w", op, ErrCircuitOpen)
		}

		lastErr = err
		b.logger.Warn().
			Str("op", op).
			Int("attempt", attempt+1).
			Err(err).
			Msg("collaborator call failed")
	}

	return fmt.Errorf("%s: %w", op, lastErr)
}
