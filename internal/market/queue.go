package market

import (
	"context"
	"sync"

	"main/internal/model"
	"main/pkg/exception"
)

// queue is the bounded, non-blocking event buffer between the stream
// reader and the instrument's dispatch goroutine.
type queue struct {
	ch chan model.LifecycleEvent

	// mu orders publishes against close: a publisher holds the read
	// side while sending, so the channel never closes mid-send.
	mu     sync.RWMutex
	closed bool
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &queue{ch: make(chan model.LifecycleEvent, capacity)}
}

// tryPublish enqueues an event without blocking.
func (q *queue) tryPublish(evt model.LifecycleEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return exception.ErrEventQueueClosed
	}
	select {
	case q.ch <- evt:
		return nil
	default:
		return exception.ErrEventQueueFull
	}
}

// close stops the queue from accepting new events.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// run consumes events until the context is done or the queue is closed.
func (q *queue) run(ctx context.Context, handler func(model.LifecycleEvent)) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-q.ch:
			if !ok {
				return
			}
			handler(evt)
		}
	}
}
