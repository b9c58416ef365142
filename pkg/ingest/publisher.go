package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// Publisher delivers a serialized InboundMessage to the downstream
// channel.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// HTTPPublisher posts message payloads to a topic endpoint.
type HTTPPublisher struct {
	URL  string
	http *http.Client
}

// NewHTTPPublisher constructs a publisher for the given topic endpoint.
func NewHTTPPublisher(url string) *HTTPPublisher {
	return &HTTPPublisher{URL: url, http: &http.Client{Timeout: 10 * time.Second}}
}

// Publish posts the payload; any non-2xx response is a failure.
func (p *HTTPPublisher) Publish(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("topic endpoint returned %s", res.Status)
	}
	return nil
}
