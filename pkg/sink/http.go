package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meshkit/telemetry/pkg/event"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPSink POSTs batches as JSON to a collector endpoint.
type HTTPSink struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// httpPayload is the wire envelope for one batch.
type httpPayload struct {
	SentAt time.Time   `json:"sent_at"`
	Events event.Batch `json:"events"`
}

// NewHTTPSink creates an HTTP sink. A zero timeout defaults to 10s; apiKey
// may be empty for unauthenticated endpoints.
func NewHTTPSink(endpoint, apiKey string, timeout time.Duration) *HTTPSink {
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPSink{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSink) Name() string { return "http" }

// Deliver sends the batch in one POST. Any non-2xx status fails the whole
// batch so the collector can re-queue it.
func (s *HTTPSink) Deliver(ctx context.Context, batch event.Batch) error {
	body, err := json.Marshal(httpPayload{
		SentAt: time.Now().UTC(),
		Events: batch,
	})
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{
			Sink:   s.Name(),
			Events: len(batch),
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return nil
}
