package http

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures NewBreakerTransport.
type BreakerSettings struct {
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker. Defaults to 5.
	ConsecutiveFailures uint32
	OnStateChange       func(name string, from, to gobreaker.State)
}

type breakerResult struct {
	reply *Reply
	body  []byte
}

// errServerFailure marks a 5xx reply as a breaker failure without turning it
// into a transport error for the caller.
var errServerFailure = errors.New("server failure")

// BreakerTransport guards another Transport with a circuit breaker. Transport
// errors and 5xx replies count as failures. While open, calls fail fast with
// gobreaker.ErrOpenState.
type BreakerTransport struct {
	next Transport
	cb   *gobreaker.CircuitBreaker[breakerResult]
}

func NewBreakerTransport(next Transport, s BreakerSettings) *BreakerTransport {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	name := s.Name
	if name == "" {
		name = "fluenthttp"
	}
	cb := gobreaker.NewCircuitBreaker[breakerResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: s.OnStateChange,
	})
	return &BreakerTransport{next: next, cb: cb}
}

// State reports the breaker state.
func (t *BreakerTransport) State() gobreaker.State {
	return t.cb.State()
}

func (t *BreakerTransport) Perform(ctx context.Context, call *Call) (*Reply, []byte, error) {
	res, err := t.cb.Execute(func() (breakerResult, error) {
		reply, body, err := t.next.Perform(ctx, call)
		if err != nil {
			return breakerResult{reply, body}, err
		}
		if reply != nil && reply.StatusCode >= 500 {
			return breakerResult{reply, body}, errServerFailure
		}
		return breakerResult{reply, body}, nil
	})
	if errors.Is(err, errServerFailure) {
		return res.reply, res.body, nil
	}
	return res.reply, res.body, err
}
