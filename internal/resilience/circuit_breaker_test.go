package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func fail(context.Context) error { return errBoom }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(cb *CircuitBreaker, clock *fakeClock)
		expectedState State
	}{
		{
			name: "stays closed below max failures",
			setup: func(cb *CircuitBreaker, _ *fakeClock) {
				cb.Execute(context.Background(), fail)
				cb.Execute(context.Background(), fail)
			},
			expectedState: StateClosed,
		},
		{
			name: "opens after max failures",
			setup: func(cb *CircuitBreaker, _ *fakeClock) {
				for i := 0; i < 3; i++ {
					cb.Execute(context.Background(), fail)
				}
			},
			expectedState: StateOpen,
		},
		{
			name: "success resets the failure count",
			setup: func(cb *CircuitBreaker, _ *fakeClock) {
				cb.Execute(context.Background(), fail)
				cb.Execute(context.Background(), fail)
				cb.Execute(context.Background(), succeed)
				cb.Execute(context.Background(), fail)
			},
			expectedState: StateClosed,
		},
		{
			name: "half-open after timeout",
			setup: func(cb *CircuitBreaker, clock *fakeClock) {
				for i := 0; i < 3; i++ {
					cb.Execute(context.Background(), fail)
				}
				clock.t = clock.t.Add(2 * time.Second)
				cb.Execute(context.Background(), succeed)
			},
			expectedState: StateHalfOpen,
		},
		{
			name: "half-open failure reopens",
			setup: func(cb *CircuitBreaker, clock *fakeClock) {
				for i := 0; i < 3; i++ {
					cb.Execute(context.Background(), fail)
				}
				clock.t = clock.t.Add(2 * time.Second)
				cb.Execute(context.Background(), fail)
			},
			expectedState: StateOpen,
		},
		{
			name: "half-open successes close",
			setup: func(cb *CircuitBreaker, clock *fakeClock) {
				for i := 0; i < 3; i++ {
					cb.Execute(context.Background(), fail)
				}
				clock.t = clock.t.Add(2 * time.Second)
				cb.Execute(context.Background(), succeed)
				cb.Execute(context.Background(), succeed)
			},
			expectedState: StateClosed,
		},
		{
			name: "cancellation is not a failure",
			setup: func(cb *CircuitBreaker, _ *fakeClock) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				for i := 0; i < 5; i++ {
					cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
				}
			},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: time.Unix(1700000000, 0)}
			cb := NewCircuitBreaker(CircuitBreakerConfig{
				Name:        "test",
				MaxFailures: 3,
				Timeout:     time.Second,
				HalfOpenMax: 2,
				Clock:       clock.now,
			})

			tt.setup(cb, clock)

			assert.Equal(t, tt.expectedState, cb.State())
		})
	}
}

func TestCircuitBreaker_OpenRejects(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Hour})

	require.ErrorIs(t, cb.Execute(context.Background(), fail), errBoom)

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(context.Background(), succeed))
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "sink",
		MaxFailures: 1,
		Timeout:     time.Hour,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	cb.Record(errBoom)
	cb.Reset()

	assert.Equal(t, []string{"sink:closed->open", "sink:open->closed"}, transitions)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
