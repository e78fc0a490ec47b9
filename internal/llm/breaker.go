package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

const (
	tripAfter   = 5
	openTimeout = 30 * time.Second
)

// Breaker wraps a Model with a circuit breaker. Only transport failures count
// against the circuit; malformed output is the extractor's problem.
type Breaker struct {
	name  string
	model Model
	cb    *gobreaker.CircuitBreaker
}

func NewBreaker(name string, model Model, logger *slog.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model circuit state changed", "backend", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			var te *TransportError
			return !errors.As(err, &te)
		},
	})
	return &Breaker{name: name, model: model, cb: cb}
}

func (b *Breaker) Complete(ctx context.Context, system, user string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.model.Complete(ctx, system, user)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &TransportError{Backend: b.name, Err: err}
	}
	if err != nil {
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}

// State reports the circuit state ("closed", "half-open", "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}
