package ingest

import (
	"bytes"
	"sync/atomic"
	"testing"
	"time"
)

func TestTryEnqueueAndWorkerDrain(t *testing.T) {
	q := NewQueue(8)
	stop := make(chan struct{})

	var handled int64
	done := make(chan struct{})
	go func() {
		q.RunWorker(stop, func(m *Msg) error {
			atomic.AddInt64(&handled, 1)
			return nil
		})
		close(done)
	}()

	for i := 0; i < 5; i++ {
		if err := q.TryEnqueue(&Msg{SessionID: "s", Payload: []byte("p")}); err != nil {
			t.Fatalf("TryEnqueue %d: %v", i, err)
		}
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&handled) < 5 {
		select {
		case <-deadline:
			t.Fatalf("worker handled %d of 5", atomic.LoadInt64(&handled))
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(stop)
	<-done
}

func TestTryEnqueueCopiesPayload(t *testing.T) {
	q := NewQueue(4)
	src := []byte("original")
	if err := q.TryEnqueue(&Msg{SessionID: "s", Payload: src}); err != nil {
		t.Fatalf("TryEnqueue: %v", err)
	}
	// mutate the caller's buffer after enqueue
	copy(src, "XXXXXXXX")

	it := <-q.Out()
	defer it.Done()
	if !bytes.Equal(it.Msg.Payload, []byte("original")) {
		t.Fatalf("payload aliased caller buffer: %q", it.Msg.Payload)
	}
}

func TestTryEnqueueFullQueue(t *testing.T) {
	q := NewQueue(2)
	for i := 0; i < 2; i++ {
		if err := q.TryEnqueue(&Msg{Payload: []byte("p")}); err != nil {
			t.Fatalf("TryEnqueue %d: %v", i, err)
		}
	}
	if err := q.TryEnqueue(&Msg{Payload: []byte("p")}); err != ErrQueueFull {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	if q.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", q.Dropped())
	}
}

func TestCloseAndDrainReleasesItems(t *testing.T) {
	q := NewQueue(4)
	for i := 0; i < 3; i++ {
		if err := q.TryEnqueue(&Msg{Payload: []byte("p")}); err != nil {
			t.Fatalf("TryEnqueue %d: %v", i, err)
		}
	}
	q.CloseAndDrain()
	if q.Len() != 0 {
		t.Fatalf("queue not drained: len=%d", q.Len())
	}
}

func TestEnqueueSequenceMonotonic(t *testing.T) {
	q := NewQueue(8)
	for i := 0; i < 3; i++ {
		if err := q.TryEnqueue(&Msg{Payload: []byte("p")}); err != nil {
			t.Fatalf("TryEnqueue %d: %v", i, err)
		}
	}
	var last uint64
	for i := 0; i < 3; i++ {
		it := <-q.Out()
		if it.Msg.EnqSeq <= last {
			t.Fatalf("seq %d not monotonic after %d", it.Msg.EnqSeq, last)
		}
		last = it.Msg.EnqSeq
		it.Done()
	}
}
