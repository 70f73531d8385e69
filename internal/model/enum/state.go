package enum

// TxState tracks an order transaction through submission and cancellation.
type TxState uint8

const (
	_tx_state_beg TxState = iota
	TxStateIdle
	TxStateSendingOrder
	TxStateWaitingAccepted
	TxStateOrdered
	TxStatePartiallyExecuted
	TxStateExecuted
	TxStateCompleted
	TxStateSendingCancel
	TxStateCancelAccepted
	TxStateCanceled
	TxStateOrderFailed
	TxStateExpired
	_tx_state_end
)

func (s TxState) IsAvailable() bool {
	return s > _tx_state_beg && s < _tx_state_end
}

func (s TxState) String() string {
	switch s {
	case TxStateIdle:
		return "idle"
	case TxStateSendingOrder:
		return "sending_order"
	case TxStateWaitingAccepted:
		return "waiting_accepted"
	case TxStateOrdered:
		return "ordered"
	case TxStatePartiallyExecuted:
		return "partially_executed"
	case TxStateExecuted:
		return "executed"
	case TxStateCompleted:
		return "completed"
	case TxStateSendingCancel:
		return "sending_cancel"
	case TxStateCancelAccepted:
		return "cancel_accepted"
	case TxStateCanceled:
		return "canceled"
	case TxStateOrderFailed:
		return "order_failed"
	case TxStateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s TxState) IsTerminal() bool {
	switch s {
	case TxStateCompleted, TxStateCanceled, TxStateOrderFailed, TxStateExpired:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the order is live on the exchange and cancelable.
func (s TxState) IsOpen() bool {
	switch s {
	case TxStateWaitingAccepted, TxStateOrdered, TxStatePartiallyExecuted, TxStateExecuted:
		return true
	default:
		return false
	}
}

// LegState tracks a single leg inside a composite order.
type LegState uint8

const (
	_leg_state_beg LegState = iota
	LegStatePending
	LegStateArmed
	LegStatePartiallyExecuted
	LegStateExecuted
	LegStateCompleted
	LegStateCanceled
	LegStateFailed
	LegStateExpired
	_leg_state_end
)

func (s LegState) IsAvailable() bool {
	return s > _leg_state_beg && s < _leg_state_end
}

// IsDone reports whether the leg has reached a terminal lifecycle signal.
func (s LegState) IsDone() bool {
	switch s {
	case LegStateCompleted, LegStateCanceled, LegStateFailed, LegStateExpired:
		return true
	default:
		return false
	}
}
