package circuit_breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

type Status uint8

const (
	Closed   Status = 1
	Open     Status = 2
	HalfOpen Status = 3
)

func (s Status) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	}
	return "UNKNOWN"
}

var ErrOpenCB = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(service func() error) error
	State() Status
	Reset()
}

// StateHook observes transitions. It runs under the breaker lock and must not call back into it.
type StateHook func(from, to Status)

type Option func(*circuitBreaker)

func WithClock(now func() time.Time) Option {
	return func(cb *circuitBreaker) {
		cb.now = now
	}
}

func WithStateHook(hook StateHook) Option {
	return func(cb *circuitBreaker) {
		cb.onChange = hook
	}
}

// WithIgnore replaces the filter for errors that are returned to the caller without being
// recorded. By default context cancellation and deadline errors are ignored, since they
// describe the caller rather than the service.
func WithIgnore(ignore func(error) bool) Option {
	return func(cb *circuitBreaker) {
		cb.ignore = ignore
	}
}

func callerGone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type circuitBreaker struct {
	mu    sync.Mutex
	state Status

	// ring of the last len(outcomes) calls, true = failed
	outcomes []bool
	next     int
	// open -> half-open after this long
	timeout  time.Duration
	openedAt time.Time
	// failure share of the ring that trips the breaker
	threshold float64
	// half-open successes needed to close
	recovery  int
	succeeded int

	now      func() time.Time
	onChange StateHook
	ignore   func(error) bool
}

func New(recordLength int, timeout time.Duration, percentile float64, recoveryRequests int, opts ...Option) CircuitBreaker {
	if recordLength <= 0 {
		recordLength = 1
	}
	cb := &circuitBreaker{
		state:     Closed,
		outcomes:  make([]bool, recordLength),
		timeout:   timeout,
		threshold: percentile,
		recovery:  recoveryRequests,
		now:       time.Now,
		ignore:    callerGone,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

func (cb *circuitBreaker) Call(service func() error) error {
	if !cb.allow() {
		return ErrOpenCB
	}
	err := service()
	if err != nil && cb.ignore != nil && cb.ignore(err) {
		return err
	}
	cb.record(err != nil)
	return err
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != Open {
		return true
	}
	if cb.now().Sub(cb.openedAt) <= cb.timeout {
		return false
	}
	cb.succeeded = 0
	cb.transition(HalfOpen)
	return true
}

func (cb *circuitBreaker) record(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.outcomes[cb.next] = failed
	cb.next = (cb.next + 1) % len(cb.outcomes)

	switch cb.state {
	case HalfOpen:
		if failed {
			cb.trip()
			return
		}
		cb.succeeded++
		if cb.succeeded >= cb.recovery {
			cb.reset()
		}
	case Closed:
		if cb.failureRatio() >= cb.threshold {
			cb.trip()
		}
	}
}

func (cb *circuitBreaker) failureRatio() float64 {
	fails := 0
	for _, failed := range cb.outcomes {
		if failed {
			fails++
		}
	}
	return float64(fails) / float64(len(cb.outcomes))
}

func (cb *circuitBreaker) State() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) trip() {
	cb.succeeded = 0
	cb.openedAt = cb.now()
	cb.transition(Open)
}

func (cb *circuitBreaker) reset() {
	clear(cb.outcomes)
	cb.next = 0
	cb.succeeded = 0
	cb.transition(Closed)
}

func (cb *circuitBreaker) transition(to Status) {
	from := cb.state
	cb.state = to
	if from != to && cb.onChange != nil {
		cb.onChange(from, to)
	}
}
