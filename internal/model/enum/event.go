package enum

// EventKind categories delivered by the exchange lifecycle stream.
type EventKind uint8

const (
	_event_kind_beg EventKind = iota
	EventKindOrder
	EventKindOrderFailed
	EventKindCancel
	EventKindCancelFailed
	EventKindExecution
	EventKindTrigger
	EventKindComplete
	EventKindExpire
	_event_kind_end
)

func (k EventKind) IsAvailable() bool {
	return k > _event_kind_beg && k < _event_kind_end
}
