package market

import (
	"context"
	"sync/atomic"

	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/og"
	"main/internal/position"
	"main/pkg/exception"
)

// Coordinator demultiplexes one instrument's lifecycle stream: events
// route to the owning transaction by acceptance id, executions
// additionally feed the instrument's position book.
//
// All applying happens on the single goroutine inside Run; that is what
// keeps per-acceptance-id ordering and lets the book go lockless.
// Different instruments run their own coordinators fully in parallel.
type Coordinator struct {
	instrument string
	queue      *queue
	dispatcher *og.Dispatcher
	book       *position.Book
	metrics    *obs.Metrics

	running atomic.Bool
}

func NewCoordinator(instrument string, capacity int, dispatcher *og.Dispatcher, book *position.Book, metrics *obs.Metrics) *Coordinator {
	if metrics == nil {
		metrics = obs.NewMetrics()
	}
	return &Coordinator{
		instrument: instrument,
		queue:      newQueue(capacity),
		dispatcher: dispatcher,
		book:       book,
		metrics:    metrics,
	}
}

func (c *Coordinator) Instrument() string {
	return c.instrument
}

func (c *Coordinator) Book() *position.Book {
	return c.book
}

// Publish hands a stream event to the coordinator without blocking.
// A full queue drops the event and counts the drop.
func (c *Coordinator) Publish(evt model.LifecycleEvent) error {
	if err := evt.Validate(); err != nil {
		c.metrics.IncEventsMalformed()
		return err
	}
	if err := c.queue.tryPublish(evt); err != nil {
		c.metrics.IncEventsDropped()
		return err
	}
	return nil
}

// Close stops accepting events; Run drains what is buffered and returns.
func (c *Coordinator) Close() {
	c.queue.close()
}

// Run consumes and applies events in arrival order until the context is
// done or the coordinator is closed. It never returns an error: a
// malformed or unroutable event is reported and dropped.
func (c *Coordinator) Run(ctx context.Context) {
	if c.running.Swap(true) {
		return
	}
	c.queue.run(ctx, c.apply)
}

func (c *Coordinator) apply(evt model.LifecycleEvent) {
	tx, ok := c.dispatcher.Lookup(evt.AcceptanceID)
	if !ok {
		c.metrics.IncEventsUnroutable()
		logs.Warnf("drop unroutable event, instrument: %s, kind: %d, acceptance id: %s",
			c.instrument, evt.Kind, evt.AcceptanceID)
		return
	}

	tx.OnLifecycleEvent(evt)
	c.metrics.IncEventsDispatched()

	if evt.Kind == enum.EventKindExecution && c.book != nil {
		if err := c.book.ApplyExecution(position.Execution{
			ExecID:     evt.ExecID,
			Side:       evt.Side,
			Size:       evt.Size,
			Price:      evt.Price,
			Commission: evt.Commission,
			Swap:       evt.Swap,
			SourceID:   evt.AcceptanceID,
			Time:       evt.Time,
		}); err != nil {
			c.metrics.IncEventsMalformed()
			logs.Errorf("apply execution to book, instrument: %s, err: %+v", c.instrument, err)
		}
	}
}

// Hub routes events to per-instrument coordinators.
type Hub struct {
	coordinators map[string]*Coordinator
}

func NewHub(coordinators ...*Coordinator) *Hub {
	hub := &Hub{coordinators: make(map[string]*Coordinator, len(coordinators))}
	for _, c := range coordinators {
		hub.coordinators[c.Instrument()] = c
	}
	return hub
}

// Coordinator returns the coordinator owning an instrument.
func (h *Hub) Coordinator(instrument string) (*Coordinator, bool) {
	c, ok := h.coordinators[instrument]
	return c, ok
}

// Route publishes an event to its instrument's coordinator.
func (h *Hub) Route(evt model.LifecycleEvent) error {
	c, ok := h.coordinators[evt.Instrument]
	if !ok {
		return exception.ErrInvalidArgument
	}
	return c.Publish(evt)
}

// Run starts every coordinator on its own goroutine and blocks until
// the context is done.
func (h *Hub) Run(ctx context.Context) {
	for _, c := range h.coordinators {
		go c.Run(ctx)
	}
	<-ctx.Done()
}
