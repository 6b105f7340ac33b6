package collector

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/OldStager01/alert-arbiter/internal/logger"
)

// ReplayCollector reads recorded frames from JSON lines. Frames without a
// number are numbered after the previous one.
type ReplayCollector struct {
	decoder *Decoder
	source  string
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
	last    uint64
	err     error
	mu      sync.Mutex
}

type ReplayCollectorConfig struct {
	Path    string
	Decoder *Decoder
}

func NewReplayCollector(cfg ReplayCollectorConfig) (*ReplayCollector, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
	}
	c := NewReplayReader(f, cfg.Decoder)
	c.source = cfg.Path
	c.closer = f
	return c, nil
}

// NewReplayReader replays frames from r. The caller keeps ownership of r.
func NewReplayReader(r io.Reader, decoder *Decoder) *ReplayCollector {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ReplayCollector{
		decoder: decoder,
		source:  "reader",
		scanner: scanner,
	}
}

func (c *ReplayCollector) Next(ctx context.Context) (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				// The scanner cannot resume after a read error or an
				// oversized line.
				c.err = fmt.Errorf("%w: %s:%d: %v", ErrSourceFailed, c.source, c.line+1, err)
				return nil, c.err
			}
			return nil, ErrExhausted
		}
		c.line++

		data := bytes.TrimSpace(c.scanner.Bytes())
		if len(data) == 0 || data[0] == '#' {
			continue
		}

		frame, err := c.decoder.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", c.source, c.line, err)
		}
		if frame.Number == 0 {
			frame.Number = c.last + 1
		}
		if frame.Number <= c.last {
			logger.Warnf("%s:%d: frame %d does not advance past %d", c.source, c.line, frame.Number, c.last)
		} else {
			c.last = frame.Number
		}
		return frame, nil
	}
}

func (c *ReplayCollector) HealthCheck(ctx context.Context) error {
	return nil
}

func (c *ReplayCollector) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
