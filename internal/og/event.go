package og

import (
	"time"

	"main/internal/model/enum"
)

// EventKind transaction-level notifications reported to the caller.
type EventKind uint8

const (
	_event_kind_beg EventKind = iota
	EventSubmitted
	EventSendFailed
	EventSendCanceled
	EventOrdered
	EventExecution
	EventCancelAccepted
	EventCancelRejected
	EventCanceled
	EventTriggered
	EventLegCompleted
	EventCompleted
	EventFailed
	EventExpired
	EventIgnored
	EventUnroutable
	_event_kind_end
)

func (k EventKind) IsAvailable() bool {
	return k > _event_kind_beg && k < _event_kind_end
}

// Event is the payload of the transaction-event callback.
type Event struct {
	Kind         EventKind
	State        enum.TxState
	AcceptanceID string
	LegIndex     int
	Reason       string
	Time         time.Time
	Err          error
}

// Handler receives transaction events. It is invoked outside the
// transaction's lock and must not block the dispatch path.
type Handler func(*Transaction, Event)
