package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeMessenger struct {
	mu    sync.Mutex
	sends []string
}

func (f *fakeMessenger) SendText(ctx context.Context, chatID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, chatID+"|"+content)
	return nil
}

func (f *fakeMessenger) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

type fakePublisher struct {
	err error

	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, append([]byte(nil), payload...))
	return f.err
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func TestFanoutPublishes(t *testing.T) {
	pub := &fakePublisher{}
	msgr := &fakeMessenger{}
	fo := NewFanout(NewQueue(4), pub, msgr)

	stop := make(chan struct{})
	go fo.RunWorker(stop)
	defer close(stop)

	fo.Submit(&Msg{SessionID: "s", MessageID: "m1", ChatID: "oc_1", UserID: "u1", Payload: []byte(`{"msg":"hi"}`)})

	deadline := time.After(2 * time.Second)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("message never published")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := msgr.sent(); len(got) != 0 {
		t.Fatalf("unexpected fallback sends: %v", got)
	}
}

func TestFanoutPublishFailureNotifiesChat(t *testing.T) {
	pub := &fakePublisher{err: errors.New("downstream down")}
	msgr := &fakeMessenger{}
	fo := NewFanout(NewQueue(4), pub, msgr)

	stop := make(chan struct{})
	go fo.RunWorker(stop)
	defer close(stop)

	fo.Submit(&Msg{SessionID: "s", MessageID: "m1", ChatID: "oc_1", UserID: "u1", Payload: []byte("x")})

	deadline := time.After(2 * time.Second)
	for len(msgr.sent()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("fallback notification never sent")
		case <-time.After(5 * time.Millisecond):
		}
	}
	got := msgr.sent()[0]
	if !strings.HasPrefix(got, "oc_1|") {
		t.Fatalf("fallback sent to wrong chat: %q", got)
	}
	// the content is JSON, so the mention markup quotes arrive escaped
	if !strings.Contains(got, `<at user_id=`) || !strings.Contains(got, "u1") || !strings.Contains(got, "Internal error") {
		t.Fatalf("fallback content wrong: %q", got)
	}
}

func TestFanoutEnqueueFailureNotifiesChat(t *testing.T) {
	pub := &fakePublisher{}
	msgr := &fakeMessenger{}
	q := NewQueue(1)
	fo := NewFanout(q, pub, msgr)

	// no worker running; the single slot fills and the next submit drops
	fo.Submit(&Msg{ChatID: "oc_1", UserID: "u1", Payload: []byte("a")})
	fo.Submit(&Msg{ChatID: "oc_2", UserID: "u2", Payload: []byte("b")})

	got := msgr.sent()
	if len(got) != 1 {
		t.Fatalf("fallback sends = %d, want 1", len(got))
	}
	if !strings.HasPrefix(got[0], "oc_2|") {
		t.Fatalf("fallback addressed wrong chat: %q", got[0])
	}
}
