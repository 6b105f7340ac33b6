package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/internal/events"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/metrics"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

var ErrPipelineStopped = errors.New("pipeline stopped")

var allStates = []string{
	string(arbiter.StateDisabled),
	string(arbiter.StateEnabled),
	string(arbiter.StateSoftDisabling),
}

type PipelineConfig struct {
	Source         string
	Collector      collector.Collector
	Engine         *arbiter.Engine
	EventPublisher *events.Publisher
	// Interval defaults to the engine's tick period.
	Interval time.Duration
	// FrameTimeout bounds one Next call, at least 50ms by default.
	FrameTimeout time.Duration
	PublishTicks bool
}

type engageRequest struct {
	reply chan error
}

// Pipeline owns the engine and runs one collect, arbitrate, publish cycle per
// tick. Everything that touches the engine happens on the pipeline goroutine.
type Pipeline struct {
	config   PipelineConfig
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
	done     chan struct{}
	engageCh chan engageRequest

	lastAlert *arbiter.Candidate
	current   arbiter.Selection
	frames    uint64
	err       error
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Interval <= 0 {
		cfg.Interval = cfg.Engine.Config().TickPeriod
	}
	if cfg.FrameTimeout <= 0 {
		cfg.FrameTimeout = cfg.Interval
		if cfg.FrameTimeout < 50*time.Millisecond {
			cfg.FrameTimeout = 50 * time.Millisecond
		}
	}
	if cfg.Source == "" {
		cfg.Source = "collector"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		config:   cfg,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		engageCh: make(chan engageRequest, 1),
		current:  arbiter.Selection{State: cfg.Engine.State()},
	}
}

func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.running = true
	p.wg.Add(1)
	go p.run()

	logger.WithField("source", p.config.Source).Info("Pipeline started")
	return nil
}

func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		p.cancel()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	logger.WithField("source", p.config.Source).Info("Pipeline stopped")
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Done is closed when the run loop exits, either stopped or out of frames.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

func (p *Pipeline) run() {
	defer p.wg.Done()
	defer close(p.done)
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		if err := p.Step(p.ctx); err != nil {
			if p.ctx.Err() != nil {
				err = ErrPipelineStopped
			} else if errors.Is(err, collector.ErrExhausted) {
				logger.WithField("source", p.config.Source).Infof("Source exhausted after %d frames", p.Frames())
			}
			p.setErr(err)
			p.rejectPending()
			return
		}

		select {
		case <-p.ctx.Done():
			p.setErr(ErrPipelineStopped)
			p.rejectPending()
			return
		case <-ticker.C:
		}
	}
}

// Step runs one cycle. Transient source errors are published and
// swallowed; exhaustion, a failed source and cancellation end the loop.
func (p *Pipeline) Step(ctx context.Context) error {
	frameCtx, cancel := context.WithTimeout(ctx, p.config.FrameTimeout)
	defer cancel()

	frame, err := p.config.Collector.Next(frameCtx)
	if err != nil {
		if errors.Is(err, collector.ErrExhausted) {
			return err
		}
		if errors.Is(err, collector.ErrSourceFailed) {
			logger.WithField("source", p.config.Source).Errorf("Frame source failed: %v", err)
			metrics.RecordSourceError(p.config.Source)
			p.config.EventPublisher.SourceError(p.lastFrame(), p.config.Source, err)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WithField("source", p.config.Source).Errorf("Frame collection failed: %v", err)
		metrics.RecordSourceError(p.config.Source)
		p.config.EventPublisher.SourceError(p.lastFrame(), p.config.Source, err)
		return nil
	}

	p.process(frame)
	return nil
}

func (p *Pipeline) process(frame *collector.Frame) {
	// current is only written on this goroutine
	if p.frames > 0 && frame.Number <= p.current.Frame {
		logger.WithFrame(frame.Number).Debugf("Skipping stale frame (last %d)", p.current.Frame)
		return
	}

	snap := frame.Snapshot
	if snap == nil {
		snap = &models.Snapshot{}
	}

	start := time.Now()
	sel := p.config.Engine.Arbitrate(frame.Number, frame.Events, snap)
	metrics.ObserveFrame(time.Since(start))

	p.record(sel)

	if frame.Engage {
		p.engage(frame, snap, nil)
	}
	select {
	case req := <-p.engageCh:
		p.engage(frame, snap, req.reply)
	default:
	}

	p.mu.Lock()
	p.current = sel.Clone()
	p.current.State = p.config.Engine.State()
	p.frames++
	p.mu.Unlock()
}

func (p *Pipeline) record(sel arbiter.Selection) {
	pub := p.config.EventPublisher

	metrics.RecordSuppressed(sel.Suppressed)
	metrics.RecordUnknownEvents(sel.Unknown)
	metrics.SetEngagementState(string(sel.State), allStates)

	for _, id := range sel.Failures {
		name, err := p.config.Engine.EventName(id)
		if err != nil {
			name = id.String()
		}
		metrics.RecordCallbackFailure(name)
		pub.CallbackFailed(sel.Frame, name)
	}

	if sel.Alert != p.lastAlert {
		if sel.Alert != nil {
			metrics.RecordSelection(sel.Alert.AlertType, sel.Alert.Alert.Priority.String())
			pub.AlertChanged(sel)
			logger.WithFrame(sel.Frame).WithField("alert_type", sel.Alert.AlertType).Debug("Alert changed")
		} else {
			pub.AlertCleared(sel.Frame, sel.State)
		}
		p.lastAlert = sel.Alert
	}

	if sel.Disengaged {
		metrics.RecordDisengagement()
		pub.Disengaged(sel)
		logger.WithFrame(sel.Frame).Warn("Disengaged")
	}

	if p.config.PublishTicks {
		pub.Tick(sel)
	}
}

func (p *Pipeline) engage(frame *collector.Frame, snap *models.Snapshot, reply chan error) {
	pub := p.config.EventPublisher
	engine := p.config.Engine

	var err error
	if engine.State() == arbiter.StateDisabled {
		err = engine.Engage(frame.Names(), snap)

		var rejection *arbiter.RejectionError
		switch {
		case errors.As(err, &rejection):
			metrics.RecordEngagement(false)
			pub.EngagementRejected(frame.Number, rejection.Reason, engine.State())
			logger.WithFrame(frame.Number).Infof("Engagement rejected: %s", rejection.Reason.AlertType)
		case err == nil:
			metrics.RecordEngagement(true)
			metrics.SetEngagementState(string(engine.State()), allStates)
			pub.EngagementAccepted(frame.Number)
			logger.WithFrame(frame.Number).Info("Engaged")
		}
	}

	if reply != nil {
		reply <- err
	}
}

// RequestEngagement asks the loop to engage on its next frame and waits for
// the verdict. Already engaged is not an error.
func (p *Pipeline) RequestEngagement(ctx context.Context) error {
	req := engageRequest{reply: make(chan error, 1)}

	select {
	case p.engageCh <- req:
	case <-p.done:
		return ErrPipelineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-p.done:
		// the loop may have answered just before exiting
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrPipelineStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) rejectPending() {
	for {
		select {
		case req := <-p.engageCh:
			req.reply <- ErrPipelineStopped
		default:
			return
		}
	}
}

// CurrentSelection returns a copy of the latest arbitration outcome.
func (p *Pipeline) CurrentSelection() arbiter.Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

func (p *Pipeline) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

func (p *Pipeline) lastFrame() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Frame
}

// Err reports why the loop ended, nil while it runs.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Pipeline) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}
