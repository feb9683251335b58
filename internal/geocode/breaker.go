package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/bstardust/piclabel/internal/logger"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds configuration for the geocoder circuit breaker
type BreakerConfig struct {
	Name string
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before probing again
	Timeout time.Duration
}

// DefaultBreakerConfig returns the settings used for batch and watch runs
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "geocoder",
		ConsecutiveFailures: 3,
		Timeout:             time.Minute,
	}
}

// Breaker stops calling a failing geocoder for a while. Calls rejected by
// an open breaker fail immediately.
type Breaker struct {
	next Geocoder
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker
func NewBreaker(next Geocoder, cfg BreakerConfig) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker '%s' state changed from %v to %v", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// an unknown place is an answer, not an outage
			return err == nil || errors.Is(err, ErrNoResult) || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// Reverse forwards to the wrapped geocoder unless the breaker is open
func (b *Breaker) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Reverse(ctx, lat, lon)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Address), nil
}

// State reports the breaker state, for logging
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
