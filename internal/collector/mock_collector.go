package collector

import (
	"context"
	"sync"
)

// MockCollector serves a fixed list of frames, numbering them 1..n when
// they carry no number.
type MockCollector struct {
	mu           sync.Mutex
	frames       []*Frame
	pos          int
	cycle        uint64
	loop         bool
	shouldFail   bool
	failureError error
}

type MockCollectorConfig struct {
	Frames []*Frame
	// Loop restarts from the first frame instead of reporting ErrExhausted,
	// shifting frame numbers so they keep advancing.
	Loop bool
}

func NewMockCollector(cfg MockCollectorConfig) *MockCollector {
	for i, f := range cfg.Frames {
		if f.Number == 0 {
			f.Number = uint64(i + 1)
		}
	}
	return &MockCollector{
		frames: cfg.Frames,
		loop:   cfg.Loop,
	}
}

func (c *MockCollector) SetShouldFail(shouldFail bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shouldFail = shouldFail
	c.failureError = err
}

func (c *MockCollector) Next(ctx context.Context) (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.shouldFail {
		if c.failureError != nil {
			return nil, c.failureError
		}
		return nil, ErrCollectionFailed
	}

	if c.pos >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return nil, ErrExhausted
		}
		c.pos = 0
		c.cycle++
	}

	frame := c.frames[c.pos]
	c.pos++
	if c.cycle > 0 {
		shifted := *frame
		shifted.Number += c.cycle * c.frames[len(c.frames)-1].Number
		return &shifted, nil
	}
	return frame, nil
}

func (c *MockCollector) HealthCheck(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shouldFail {
		return ErrCollectionFailed
	}
	return nil
}

func (c *MockCollector) Close() error {
	return nil
}
