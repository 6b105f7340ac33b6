package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/internal/events"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/metrics"
	"github.com/OldStager01/alert-arbiter/internal/resilience"
	"github.com/OldStager01/alert-arbiter/internal/sink"
	"github.com/OldStager01/alert-arbiter/pkg/config"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

var ErrNoPipeline = errors.New("no pipeline running")

const drainTimeout = 2 * time.Second

// sinkEvents are the bus events forwarded to downstream renderers.
var sinkEvents = []models.EventType{
	models.EventTypeAlertChanged,
	models.EventTypeAlertCleared,
	models.EventTypeDisengaged,
	models.EventTypeEngagementAccepted,
	models.EventTypeEngagementRejected,
}

// Orchestrator wires the control loop to the bus, the history recorder and
// the renderer sinks.
type Orchestrator struct {
	config      *config.Config
	eventBus    *events.EventBus
	eventLogger *events.EventLogger
	pipeline    *Pipeline
	table       *alerts.Table
	sinks       []sink.Sink
	forwarders  []*sink.Forwarder
	mu          sync.RWMutex
}

func New(cfg *config.Config, history events.HistoryWriter) *Orchestrator {
	eventBus := events.NewEventBus(cfg.Events.BufferSize)

	var logged []models.EventType
	for _, t := range events.AllEventTypes() {
		if t != models.EventTypeTick {
			logged = append(logged, t)
		}
	}
	eventLogger := events.NewEventLogger(history, eventBus.Subscribe(logged...))

	return &Orchestrator{
		config:      cfg,
		eventBus:    eventBus,
		eventLogger: eventLogger,
	}
}

func (o *Orchestrator) Start() error {
	logger.Info("Orchestrator starting")
	o.eventLogger.Start()
	return nil
}

// Stop ends the pipeline, then flushes the bus into the recorder and sinks
// before closing them.
func (o *Orchestrator) Stop() {
	logger.Info("Orchestrator stopping")

	o.mu.Lock()
	pipeline := o.pipeline
	forwarders := o.forwarders
	sinks := o.sinks
	o.forwarders = nil
	o.sinks = nil
	o.mu.Unlock()

	if pipeline != nil {
		pipeline.Stop()
	}

	o.eventBus.Close()

	for _, f := range forwarders {
		f.Drain(drainTimeout)
	}
	o.eventLogger.Drain(drainTimeout)

	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Warnf("Closing sink %s: %v", s.Name(), err)
		}
	}

	logger.Info("Orchestrator stopped")
}

// AddSink forwards alert changes to s until Stop.
func (o *Orchestrator) AddSink(s sink.Sink, breaker config.CircuitBreakerConfig) {
	fwd := sink.NewForwarder(sink.ForwarderConfig{
		Sink:          s,
		Events:        o.eventBus.Subscribe(sinkEvents...),
		MaxFailures:   breaker.MaxFailures,
		Timeout:       breaker.Timeout,
		OnStateChange: circuitStateChanged,
	})
	fwd.Start()

	o.mu.Lock()
	o.sinks = append(o.sinks, s)
	o.forwarders = append(o.forwarders, fwd)
	o.mu.Unlock()

	logger.WithField("sink", s.Name()).Info("Alert sink attached")
}

func circuitStateChanged(name string, from, to resilience.State) {
	metrics.SetCircuitBreakerState(name, int(to))
	logger.WithField("circuit", name).Warnf("Circuit breaker %s -> %s", from, to)
}

// StartPipeline hands engine ownership to a new control loop.
func (o *Orchestrator) StartPipeline(engine *arbiter.Engine, coll collector.Collector, source string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeline != nil && o.pipeline.IsRunning() {
		return fmt.Errorf("pipeline already running for source %s", o.pipeline.config.Source)
	}

	pipeline := NewPipeline(PipelineConfig{
		Source:         source,
		Collector:      coll,
		Engine:         engine,
		EventPublisher: events.NewPublisher(o.eventBus),
		Interval:       o.config.Arbiter.Pace,
		FrameTimeout:   o.config.Collector.Timeout,
		PublishTicks:   o.config.Arbiter.PublishTicks,
	})

	if err := pipeline.Start(); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	o.pipeline = pipeline
	o.table = engine.Table()
	return nil
}

func (o *Orchestrator) StopPipeline() error {
	o.mu.Lock()
	pipeline := o.pipeline
	o.mu.Unlock()

	if pipeline == nil {
		return ErrNoPipeline
	}
	pipeline.Stop()
	return nil
}

func (o *Orchestrator) current() (*Pipeline, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.pipeline == nil {
		return nil, ErrNoPipeline
	}
	return o.pipeline, nil
}

// Done is closed when the current pipeline ends. Nil without a pipeline.
func (o *Orchestrator) Done() <-chan struct{} {
	p, err := o.current()
	if err != nil {
		return nil
	}
	return p.Done()
}

func (o *Orchestrator) IsRunning() bool {
	p, err := o.current()
	return err == nil && p.IsRunning()
}

func (o *Orchestrator) CurrentSelection() (arbiter.Selection, error) {
	p, err := o.current()
	if err != nil {
		return arbiter.Selection{}, err
	}
	return p.CurrentSelection(), nil
}

func (o *Orchestrator) RequestEngagement(ctx context.Context) error {
	p, err := o.current()
	if err != nil {
		return err
	}
	return p.RequestEngagement(ctx)
}

// PipelineStatus summarises the loop for health checks.
func (o *Orchestrator) PipelineStatus() (source string, frames uint64, running bool, err error) {
	p, cerr := o.current()
	if cerr != nil {
		return "", 0, false, cerr
	}
	return p.config.Source, p.Frames(), p.IsRunning(), p.Err()
}

// Table is the immutable alert table of the running engine.
func (o *Orchestrator) Table() *alerts.Table {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.table
}

func (o *Orchestrator) SubscribeEvents(eventTypes ...models.EventType) <-chan *models.Event {
	return o.eventBus.Subscribe(eventTypes...)
}

func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}
