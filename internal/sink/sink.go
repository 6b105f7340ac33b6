package sink

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/metrics"
	"github.com/OldStager01/alert-arbiter/internal/resilience"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// Sink delivers alert changes to a downstream renderer.
type Sink interface {
	Name() string
	Publish(ctx context.Context, rec *models.AlertRecord) error
	Close() error
}

type ForwarderConfig struct {
	Sink           Sink
	Events         <-chan *models.Event
	MaxFailures    int
	Timeout        time.Duration
	PublishTimeout time.Duration
	OnStateChange  func(name string, from, to resilience.State)
}

// Forwarder drains bus events into a Sink behind a circuit breaker so a dead
// renderer link never backs up the bus.
type Forwarder struct {
	sink           Sink
	events         <-chan *models.Event
	breaker        *resilience.CircuitBreaker
	publishTimeout time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	dropped        int
	mu             sync.Mutex
}

func NewForwarder(cfg ForwarderConfig) *Forwarder {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Forwarder{
		sink:   cfg.Sink,
		events: cfg.Events,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:          "sink:" + cfg.Sink.Name(),
			MaxFailures:   cfg.MaxFailures,
			Timeout:       cfg.Timeout,
			OnStateChange: cfg.OnStateChange,
		}),
		publishTimeout: cfg.PublishTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}
}

func (f *Forwarder) Start() {
	f.wg.Add(1)
	go f.run()
}

func (f *Forwarder) Stop() {
	f.cancel()
	f.wg.Wait()
}

// Drain lets the forwarder flush its subscription once the bus has closed
// it, then stops it. Records still queued after timeout are lost.
func (f *Forwarder) Drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
	f.Stop()
}

func (f *Forwarder) run() {
	defer f.wg.Done()
	for {
		select {
		case <-f.ctx.Done():
			return
		case event, ok := <-f.events:
			if !ok {
				return
			}
			f.forward(event)
		}
	}
}

func (f *Forwarder) forward(event *models.Event) {
	rec, ok := event.Record()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(f.ctx, f.publishTimeout)
	defer cancel()

	err := f.breaker.Execute(ctx, func(ctx context.Context) error {
		return f.sink.Publish(ctx, rec)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		f.mu.Lock()
		f.dropped++
		f.mu.Unlock()
		return
	}

	metrics.RecordSinkPublish(f.sink.Name(), err)
	if err != nil {
		logger.WithFrame(event.Frame).Warnf("Sink %s publish failed: %v", f.sink.Name(), err)
	}
}

// Dropped counts records skipped while the circuit was open.
func (f *Forwarder) Dropped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

func (f *Forwarder) CircuitState() resilience.State {
	return f.breaker.State()
}
