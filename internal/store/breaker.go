package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures BreakerKV.
type BreakerSettings struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// Timeout is how long the breaker stays open before letting a probe through.
	Timeout time.Duration
}

// BreakerKV wraps a remote KV in a circuit breaker. While the breaker is
// open every call returns gobreaker.ErrOpenState without reaching the server.
type BreakerKV struct {
	next KV
	cb   *gobreaker.CircuitBreaker
}

type getResult struct {
	value string
	ok    bool
}

func NewBreakerKV(next KV, s BreakerSettings, log logrus.FieldLogger) *BreakerKV {
	if s.MaxFailures == 0 {
		s.MaxFailures = 3
	}
	if s.Timeout <= 0 {
		s.Timeout = 5 * time.Second
	}
	maxFailures := s.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("storage circuit breaker changed state")
			}
		},
	})
	return &BreakerKV{next: next, cb: cb}
}

func (b *BreakerKV) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerKV) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		v, ok, err := b.next.Get(ctx, key)
		return getResult{value: v, ok: ok}, err
	})
	if err != nil {
		return "", false, err
	}
	r := res.(getResult)
	return r.value, r.ok, nil
}

func (b *BreakerKV) Set(ctx context.Context, key, value string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value)
	})
	return err
}
