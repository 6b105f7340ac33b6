package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calling a failing dependency for a cool-down period.
// Context cancellation is not counted as a failure.
type CircuitBreaker struct {
	name          string
	maxFailures   int
	timeout       time.Duration
	halfOpenMax   int
	state         State
	failures      int
	successes     int
	lastFailTime  time.Time
	now           func() time.Time
	mu            sync.Mutex
	onStateChange func(name string, from, to State)
}

type CircuitBreakerConfig struct {
	Name        string
	MaxFailures int
	Timeout     time.Duration
	HalfOpenMax int
	// OnStateChange runs synchronously under no lock after each transition.
	OnStateChange func(name string, from, to State)
	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &CircuitBreaker{
		name:          cfg.Name,
		maxFailures:   cfg.MaxFailures,
		timeout:       cfg.Timeout,
		halfOpenMax:   cfg.HalfOpenMax,
		state:         StateClosed,
		now:           cfg.Clock,
		onStateChange: cfg.OnStateChange,
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}

	cb.Record(err)
	return err
}

// Allow reports ErrCircuitOpen while the cool-down has not elapsed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailTime) <= cb.timeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		from := cb.transitionTo(StateHalfOpen)
		cb.mu.Unlock()
		cb.notify(from, StateHalfOpen)
		return nil
	default:
		cb.mu.Unlock()
		return nil
	}
}

// Record feeds the outcome of a call admitted by Allow.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()

	from, to := cb.state, cb.state
	if err == nil {
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.halfOpenMax {
				to = StateClosed
			}
		}
	} else {
		cb.lastFailTime = cb.now()
		switch cb.state {
		case StateClosed:
			cb.failures++
			if cb.failures >= cb.maxFailures {
				to = StateOpen
			}
		case StateHalfOpen:
			to = StateOpen
		}
	}

	if to != from {
		cb.transitionTo(to)
	}
	cb.mu.Unlock()

	if to != from {
		cb.notify(from, to)
	}
}

func (cb *CircuitBreaker) transitionTo(newState State) State {
	oldState := cb.state
	cb.state = newState
	cb.failures = 0
	cb.successes = 0
	return oldState
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.transitionTo(StateClosed)
	cb.mu.Unlock()

	if from != StateClosed {
		cb.notify(from, StateClosed)
	}
}

func (cb *CircuitBreaker) Stats() (state State, failures int, lastFail time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state, cb.failures, cb.lastFailTime
}
