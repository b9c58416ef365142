// Package feedback normalizes user approval/disapproval into feedback
// events and hands them to the downstream processing function without
// awaiting completion.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cardrelay/pkg/logger"
	"cardrelay/pkg/models"
	"cardrelay/pkg/telemetry"
)

// Invoker dispatches a feedback event to the downstream function.
type Invoker interface {
	Invoke(ctx context.Context, ev models.FeedbackEvent) error
}

// HTTPInvoker posts feedback events as JSON to a configured endpoint.
type HTTPInvoker struct {
	URL  string
	http *http.Client
}

// NewHTTPInvoker constructs an invoker for the given endpoint.
func NewHTTPInvoker(url string) *HTTPInvoker {
	return &HTTPInvoker{URL: url, http: &http.Client{Timeout: 10 * time.Second}}
}

// Invoke posts the event. Acceptance (2xx) is the only success criterion.
func (i *HTTPInvoker) Invoke(ctx context.Context, ev models.FeedbackEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := i.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("feedback endpoint returned %s", res.Status)
	}
	return nil
}

// Forwarder builds feedback events and dispatches them fire-and-forget.
type Forwarder struct {
	inv Invoker
}

// NewForwarder constructs a forwarder around the given invoker.
func NewForwarder(inv Invoker) *Forwarder {
	return &Forwarder{inv: inv}
}

// Forward builds a FeedbackEvent and dispatches it asynchronously. A
// method other than post or delete is a logged no-op. Dispatch failures
// are logged, never propagated; the webhook caller must not see them.
func (f *Forwarder) Forward(method, sessionID, msgID, action, user string) {
	var ev models.FeedbackEvent
	switch method {
	case models.FeedbackPost:
		ev = models.FeedbackEvent{
			Method:   method,
			Resource: "feedback",
			Body: models.FeedbackBody{
				MsgID:     msgID,
				Username:  user,
				SessionID: sessionID,
				Action:    action,
			},
		}
	case models.FeedbackDelete:
		ev = models.FeedbackEvent{
			Method:   method,
			Resource: "feedback",
			Body: models.FeedbackBody{
				MsgID:     msgID,
				SessionID: sessionID,
			},
		}
	default:
		logger.Warn("feedback_invalid_method", "method", method)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := f.inv.Invoke(ctx, ev); err != nil {
			logger.Error("feedback_dispatch_failed", "method", method, "msgid", msgID, "error", err)
			return
		}
		telemetry.FeedbackForwarded.WithLabelValues(method).Inc()
		logger.Info("feedback_forwarded", "method", method, "msgid", msgID, "session_id", sessionID, "action", action)
	}()
}
