package transport

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
)

// HTTPSinkConfig configures the HTTP sink.
type HTTPSinkConfig struct {
	// BaseURL is the collector's base URL, e.g. "https://collector:8080".
	BaseURL string

	// APIKey is sent as a bearer token on every request. Optional.
	APIKey string

	// Timeout is the client-level request timeout. The Flusher additionally
	// bounds each attempt with its own deadline.
	// Default: 10s
	Timeout time.Duration

	// Compress enables zstd compression of block payloads.
	// Default behavior: disabled unless set.
	Compress bool
}

// HTTPSink posts registration events and blocks to a collector over HTTP.
//
// Routes: POST {base}/api/v1/process for registration and
// POST {base}/api/v1/blocks for blocks. Block payloads travel as
// application/octet-stream with the stream id and sequence in headers so
// the collector can sequence-check without decoding.
type HTTPSink struct {
	client   *resty.Client
	compress *zstd.Encoder
}

// NewHTTPSink creates an HTTP sink.
func NewHTTPSink(config HTTPSinkConfig) (*HTTPSink, error) {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout)
	if config.APIKey != "" {
		client.SetAuthToken(config.APIKey)
	}

	s := &HTTPSink{client: client}
	if config.Compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("transport: creating zstd encoder: %w", err)
		}
		s.compress = enc
	}
	return s, nil
}

// Register posts the process registration event.
func (s *HTTPSink) Register(ctx context.Context, info ProcessInfo) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"process_id":  strconv.FormatUint(info.ProcessID, 10),
			"instance_id": info.InstanceID,
			"service":     info.Service,
			"hostname":    info.Hostname,
			"start_ns":    info.Start.UnixNano(),
			"min_level":   info.MinLevel,
		}).
		Post("/api/v1/process")
	if err != nil {
		return fmt.Errorf("transport: registration: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: status %d", ErrRegisterFailed, resp.StatusCode())
	}
	return nil
}

// Send posts one block.
func (s *HTTPSink) Send(ctx context.Context, block Encoded) error {
	payload := block.Payload
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetHeader("X-Stream-ID", strconv.FormatUint(block.StreamID, 10)).
		SetHeader("X-Sequence", strconv.FormatUint(block.Sequence, 10))
	if s.compress != nil {
		payload = s.compress.EncodeAll(payload, nil)
		req.SetHeader("Content-Encoding", "zstd")
	}

	resp, err := req.SetBody(payload).Post("/api/v1/blocks")
	if err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode())
	}
	return nil
}
