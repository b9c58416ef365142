package ingest

import (
	"context"
	"time"

	"cardrelay/pkg/lark"
	"cardrelay/pkg/logger"
	"cardrelay/pkg/telemetry"
)

// Fanout routes inbound chat messages through the bounded queue to a
// downstream Publisher. When a message cannot be queued or published
// the originating chat is notified so the user knows the message was
// lost.
type Fanout struct {
	queue     *Queue
	publisher Publisher
	messenger lark.Messenger
}

// NewFanout wires the queue, downstream publisher and chat messenger.
func NewFanout(q *Queue, p Publisher, m lark.Messenger) *Fanout {
	return &Fanout{queue: q, publisher: p, messenger: m}
}

// Submit enqueues a message for downstream delivery. If the queue is
// full the user is notified synchronously and the message is dropped.
func (f *Fanout) Submit(m *Msg) {
	if err := f.queue.TryEnqueue(m); err != nil {
		logger.Warn("fanout_enqueue_failed", "session", m.SessionID, "error", err.Error())
		telemetry.FanoutFailures.Inc()
		f.notifyFailure(m.ChatID, m.UserID)
		return
	}
}

// RunWorker consumes queued messages until stop is closed, publishing
// each to the downstream channel.
func (f *Fanout) RunWorker(stop <-chan struct{}) {
	f.queue.RunWorker(stop, f.publish)
}

func (f *Fanout) publish(m *Msg) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := f.publisher.Publish(ctx, m.Payload); err != nil {
		logger.Warn("fanout_publish_failed", "session", m.SessionID, "msg_id", m.MessageID, "error", err.Error())
		telemetry.FanoutFailures.Inc()
		f.notifyFailure(m.ChatID, m.UserID)
		return err
	}
	telemetry.FanoutPublished.Inc()
	return nil
}

func (f *Fanout) notifyFailure(chatID, userID string) {
	if f.messenger == nil || chatID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	text := lark.AtUser(userID) + " Internal error"
	if err := f.messenger.SendText(ctx, chatID, lark.TextContent(text)); err != nil {
		logger.Error("fanout_fallback_failed", "chat_id", chatID, "error", err.Error())
	}
}
