package obs

import "sync/atomic"

// Metrics collects lightweight counters for the dispatch and position
// paths. All methods are safe for concurrent use.
type Metrics struct {
	eventsDispatched uint64
	eventsDropped    uint64
	eventsUnroutable uint64
	eventsMalformed  uint64

	txSubmitted uint64
	txCompleted uint64
	txCanceled  uint64
	txFailed    uint64

	lotsOpened uint64
	lotsClosed uint64
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	EventsDispatched uint64
	EventsDropped    uint64
	EventsUnroutable uint64
	EventsMalformed  uint64

	TxSubmitted uint64
	TxCompleted uint64
	TxCanceled  uint64
	TxFailed    uint64

	LotsOpened uint64
	LotsClosed uint64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncEventsDispatched() { atomic.AddUint64(&m.eventsDispatched, 1) }
func (m *Metrics) IncEventsDropped()    { atomic.AddUint64(&m.eventsDropped, 1) }
func (m *Metrics) IncEventsUnroutable() { atomic.AddUint64(&m.eventsUnroutable, 1) }
func (m *Metrics) IncEventsMalformed()  { atomic.AddUint64(&m.eventsMalformed, 1) }

func (m *Metrics) IncTxSubmitted() { atomic.AddUint64(&m.txSubmitted, 1) }
func (m *Metrics) IncTxCompleted() { atomic.AddUint64(&m.txCompleted, 1) }
func (m *Metrics) IncTxCanceled()  { atomic.AddUint64(&m.txCanceled, 1) }
func (m *Metrics) IncTxFailed()    { atomic.AddUint64(&m.txFailed, 1) }

func (m *Metrics) IncLotsOpened() { atomic.AddUint64(&m.lotsOpened, 1) }
func (m *Metrics) IncLotsClosed() { atomic.AddUint64(&m.lotsClosed, 1) }

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		EventsDispatched: atomic.LoadUint64(&m.eventsDispatched),
		EventsDropped:    atomic.LoadUint64(&m.eventsDropped),
		EventsUnroutable: atomic.LoadUint64(&m.eventsUnroutable),
		EventsMalformed:  atomic.LoadUint64(&m.eventsMalformed),
		TxSubmitted:      atomic.LoadUint64(&m.txSubmitted),
		TxCompleted:      atomic.LoadUint64(&m.txCompleted),
		TxCanceled:       atomic.LoadUint64(&m.txCanceled),
		TxFailed:         atomic.LoadUint64(&m.txFailed),
		LotsOpened:       atomic.LoadUint64(&m.lotsOpened),
		LotsClosed:       atomic.LoadUint64(&m.lotsClosed),
	}
}
