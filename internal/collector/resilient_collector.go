package collector

import (
	"context"
	"errors"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/resilience"
)

// ResilientCollector retries transient failures within one frame and opens
// a circuit when the source keeps failing. Exhaustion and malformed frames
// come from a live source, so they pass through without retry and do not
// count against the circuit.
type ResilientCollector struct {
	collector      Collector
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientCollectorConfig struct {
	Collector     Collector
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientCollector(cfg ResilientCollectorConfig) *ResilientCollector {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Millisecond
	}

	return &ResilientCollector{
		collector: cfg.Collector,
		circuitBreaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:          "collector",
			MaxFailures:   cfg.MaxFailures,
			Timeout:       cfg.Timeout,
			OnStateChange: cfg.OnStateChange,
		}),
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

func passThrough(err error) bool {
	return errors.Is(err, ErrExhausted) || errors.Is(err, ErrInvalidFrame) || errors.Is(err, ErrSourceFailed)
}

func (c *ResilientCollector) Next(ctx context.Context) (*Frame, error) {
	var frame *Frame
	var sourceErr error

	err := c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		f, err := c.fetch(ctx)
		if err != nil && !passThrough(err) {
			return err
		}
		frame, sourceErr = f, err
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sourceErr != nil {
		return nil, sourceErr
	}
	return frame, nil
}

// fetch retries while attempts remain and ctx leaves room for another one.
func (c *ResilientCollector) fetch(ctx context.Context) (*Frame, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		frame, err := c.collector.Next(ctx)
		if err == nil || passThrough(err) {
			return frame, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if attempt >= c.retryAttempts || !c.roomForRetry(ctx) {
			return nil, lastErr
		}
		logger.Debugf("Frame read attempt %d/%d failed: %v", attempt, c.retryAttempts, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *ResilientCollector) roomForRetry(ctx context.Context) bool {
	deadline, ok := ctx.Deadline()
	return !ok || time.Until(deadline) > c.retryDelay
}

func (c *ResilientCollector) HealthCheck(ctx context.Context) error {
	return c.collector.HealthCheck(ctx)
}

func (c *ResilientCollector) Close() error {
	return c.collector.Close()
}

func (c *ResilientCollector) CircuitState() resilience.State {
	return c.circuitBreaker.State()
}

func (c *ResilientCollector) ResetCircuit() {
	c.circuitBreaker.Reset()
}
