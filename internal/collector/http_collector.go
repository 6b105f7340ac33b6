package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/logger"
)

const (
	defaultHTTPTimeout = 50 * time.Millisecond
	maxFrameBytes      = 1 << 20
)

// HTTPCollector polls a telemetry bridge for its current frame. The bridge
// answers 204 once its drive is over.
type HTTPCollector struct {
	client    *http.Client
	frameURL  string
	healthURL string
	decoder   *Decoder
}

type HTTPCollectorConfig struct {
	Endpoint string
	Timeout  time.Duration
	Decoder  *Decoder
}

func NewHTTPCollector(cfg HTTPCollectorConfig) *HTTPCollector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	base := strings.TrimRight(cfg.Endpoint, "/")

	return &HTTPCollector{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		frameURL:  base + "/frame",
		healthURL: base + "/health",
		decoder:   cfg.Decoder,
	}
}

func (c *HTTPCollector) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return nil, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
	}
	return resp, nil
}

func (c *HTTPCollector) Next(ctx context.Context) (*Frame, error) {
	resp, err := c.get(ctx, c.frameURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, ErrExhausted
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFrameBytes))
		return nil, fmt.Errorf("%w: bridge returned %d", ErrCollectionFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading frame: %v", ErrCollectionFailed, err)
	}
	if len(body) > maxFrameBytes {
		return nil, fmt.Errorf("%w: frame exceeds %d bytes", ErrInvalidFrame, maxFrameBytes)
	}

	frame, err := c.decoder.Decode(body)
	if err != nil {
		return nil, err
	}
	logger.WithFrame(frame.Number).Debugf("Polled %d events", len(frame.Events))
	return frame, nil
}

func (c *HTTPCollector) HealthCheck(ctx context.Context) error {
	resp, err := c.get(ctx, c.healthURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: bridge health returned %d", ErrCollectionFailed, resp.StatusCode)
	}
	return nil
}

func (c *HTTPCollector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
