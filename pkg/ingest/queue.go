// Package ingest publishes newly received chat messages to the async
// downstream channel through a bounded in-memory queue.
package ingest

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Msg is a queued inbound-message publication. Payload holds the
// serialized InboundMessage and may be backed by a pooled ByteBuffer;
// consumers must call Item.Done() when finished. ChatID and UserID are
// kept alongside so the publish-failure fallback can address the
// originating chat without re-parsing the payload.
type Msg struct {
	SessionID string
	MessageID string
	ChatID    string
	UserID    string
	Payload   []byte
	// EnqSeq is a monotonic enqueue sequence assigned when the message
	// is accepted into the queue.
	EnqSeq uint64
}

// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
var ErrQueueFull = errors.New("ingest queue full")

// Item wraps a Msg and owns a pooled ByteBuffer if one was used.
// Consumers MUST call Done() exactly once after processing.
type Item struct {
	Msg *Msg

	buf  *bytebufferpool.ByteBuffer
	once sync.Once
}

// maxPooledBuffer controls the largest buffer size returned to the pool.
// Larger buffers are dropped so resident memory stays bounded.
var maxPooledBuffer = 256 * 1024

// Done releases internal pooled resources back to the pool.
func (it *Item) Done() {
	it.once.Do(func() {
		if it.buf != nil {
			if cap(it.buf.B) > maxPooledBuffer {
				it.buf = nil
			} else {
				bytebufferpool.Put(it.buf)
				it.buf = nil
			}
		}
		if it.Msg != nil {
			it.Msg.Payload = nil
			msgPool.Put(it.Msg)
			it.Msg = nil
		}
	})
}

var msgPool = sync.Pool{New: func() any { return &Msg{} }}

// Queue is a bounded in-memory queue of pending publications. It is safe
// for concurrent producers; consumers range over Out().
type Queue struct {
	ch       chan *Item
	capacity int
	dropped  uint64
	enqSeq   uint64
}

// NewQueue creates a bounded Queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{ch: make(chan *Item, capacity), capacity: capacity}
}

// Out returns a read-only channel consumers range over to receive queued
// items. Do not close it from callers.
func (q *Queue) Out() <-chan *Item { return q.ch }

// TryEnqueue attempts to enqueue a message, copying its payload into a
// pooled buffer. If the queue is full ErrQueueFull is returned and the
// caller decides the fallback.
func (q *Queue) TryEnqueue(m *Msg) error {
	newMsg := msgPool.Get().(*Msg)
	*newMsg = *m
	newMsg.EnqSeq = atomic.AddUint64(&q.enqSeq, 1)

	var bb *bytebufferpool.ByteBuffer
	if len(m.Payload) > 0 {
		bb = bytebufferpool.Get()
		bb.B = append(bb.B[:0], m.Payload...)
		newMsg.Payload = bb.B[:len(m.Payload)]
	}

	it := &Item{Msg: newMsg, buf: bb}
	select {
	case q.ch <- it:
		return nil
	default:
		if bb != nil {
			bytebufferpool.Put(bb)
		}
		msgPool.Put(newMsg)
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// CloseAndDrain closes the queue channel and drains remaining items,
// ensuring their resources are released.
func (q *Queue) CloseAndDrain() {
	close(q.ch)
	for it := range q.ch {
		it.Done()
	}
}

// RunWorker runs a worker loop invoking handler for each dequeued
// message. Item.Done() is guaranteed even when handler errors. The
// worker exits when stop is closed or when the queue is closed.
func (q *Queue) RunWorker(stop <-chan struct{}, handler func(*Msg) error) {
	for {
		select {
		case it, ok := <-q.ch:
			if !ok {
				return
			}
			func(it *Item) {
				defer it.Done()
				_ = handler(it.Msg)
			}(it)
		case <-stop:
			return
		}
	}
}

// Len returns the current number of items in the queue.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the configured capacity of the queue.
func (q *Queue) Cap() int { return q.capacity }

// Dropped returns the number of messages rejected due to a full queue.
func (q *Queue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }
