package og

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/exchange"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
	"main/pkg/exception"
)

// Config bounds the submit retry loop.
type Config struct {
	MaxSubmitAttempts int
	RetryDelay        time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxSubmitAttempts <= 0 {
		cfg.MaxSubmitAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return cfg
}

// Transaction drives one order through the submission/cancellation state
// machine while reconciling the exchange's lifecycle events.
//
// Submit and Cancel run on caller goroutines; OnLifecycleEvent runs on
// the instrument's single dispatch goroutine. The transaction owns its
// order exclusively.
type Transaction struct {
	cfg        Config
	delegator  exchange.Delegator
	dispatcher *Dispatcher
	handler    Handler

	cancelRequested atomic.Bool

	mu          sync.Mutex
	ord         *order.Order
	state       enum.TxState
	resumeState enum.TxState
	registered  []string
}

func NewTransaction(cfg Config, delegator exchange.Delegator, dispatcher *Dispatcher, handler Handler) *Transaction {
	return &Transaction{
		cfg:        cfg.withDefaults(),
		delegator:  delegator,
		dispatcher: dispatcher,
		handler:    handler,
		state:      enum.TxStateIdle,
	}
}

// State returns the current transaction state.
func (tx *Transaction) State() enum.TxState {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.state
}

// Order returns a deep copy of the owned order.
func (tx *Transaction) Order() order.Order {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.ord == nil {
		return order.Order{}
	}
	cp := *tx.ord
	cp.Legs = make([]order.Leg, len(tx.ord.Legs))
	copy(cp.Legs, tx.ord.Legs)
	for i := range cp.Legs {
		cp.Legs[i].ExecIDs = append([]string(nil), cp.Legs[i].ExecIDs...)
	}
	return cp
}

// Disposable reports whether the transaction reached a terminal state
// and can be dropped by its owner.
func (tx *Transaction) Disposable() bool {
	return tx.State().IsTerminal()
}

// RequestCancel asks the submit retry loop to stop at its next
// checkpoint. It has no effect once the submit call succeeded
// server-side; cancel a live order with Cancel instead.
func (tx *Transaction) RequestCancel() {
	tx.cancelRequested.Store(true)
}

// Submit attempts the external submit call up to the configured number
// of attempts with a fixed delay in between. Transient errors are
// retried; an exchange rejection fails immediately; a cancellation
// requested between attempts returns the transaction to idle.
func (tx *Transaction) Submit(ctx context.Context, ord *order.Order) error {
	if ord == nil {
		return exception.ErrNilInstance
	}

	tx.mu.Lock()
	if tx.state != enum.TxStateIdle {
		tx.mu.Unlock()
		return exception.ErrTransactionNotIdle
	}
	tx.ord = ord
	tx.setState(enum.TxStateSendingOrder)
	tx.mu.Unlock()

	for attempt := 1; ; attempt++ {
		if tx.cancelRequested.Load() {
			return tx.abortSubmit(exception.ErrSubmitCanceled)
		}

		ack, err := tx.delegator.Submit(ctx, ord)
		if err == nil {
			return tx.acceptSubmit(ack)
		}
		if exchange.IsRejection(err) {
			tx.failSubmit(err)
			return err
		}
		if attempt >= tx.cfg.MaxSubmitAttempts {
			tx.failSubmit(exception.ErrSubmitRetriesExhausted)
			return errors.Wrap(err, "submit retries exhausted")
		}

		select {
		case <-ctx.Done():
			return tx.abortSubmit(ctx.Err())
		case <-time.After(tx.cfg.RetryDelay):
		}
	}
}

func (tx *Transaction) abortSubmit(cause error) error {
	tx.mu.Lock()
	tx.setState(enum.TxStateIdle)
	tx.ord = nil
	tx.mu.Unlock()
	tx.emit(Event{Kind: EventSendCanceled, Err: cause})
	return exception.ErrSubmitCanceled
}

func (tx *Transaction) failSubmit(cause error) {
	tx.mu.Lock()
	tx.setState(enum.TxStateOrderFailed)
	tx.mu.Unlock()
	tx.emit(Event{Kind: EventSendFailed, Err: cause})
}

func (tx *Transaction) acceptSubmit(ack exchange.SubmitAck) error {
	tx.mu.Lock()
	tx.ord.AcceptanceID = ack.AcceptanceID

	ids := []string{ack.AcceptanceID}
	if len(ack.LegAcceptanceIDs) == len(tx.ord.Legs) {
		// The exchange armed every leg at once.
		for i := range tx.ord.Legs {
			tx.ord.Legs[i].AcceptanceID = ack.LegAcceptanceIDs[i]
			tx.ord.Legs[i].State = enum.LegStateArmed
			if ack.LegAcceptanceIDs[i] != ack.AcceptanceID {
				ids = append(ids, ack.LegAcceptanceIDs[i])
			}
		}
	} else {
		tx.ord.Legs[0].AcceptanceID = ack.AcceptanceID
		tx.ord.Legs[0].State = enum.LegStateArmed
	}

	for _, id := range ids {
		if err := tx.dispatcher.Register(id, tx); err != nil {
			tx.deregisterLocked()
			tx.setState(enum.TxStateOrderFailed)
			tx.mu.Unlock()
			tx.emit(Event{Kind: EventSendFailed, Err: err})
			return err
		}
		tx.registered = append(tx.registered, id)
	}

	tx.setState(enum.TxStateWaitingAccepted)
	tx.mu.Unlock()
	tx.emit(Event{Kind: EventSubmitted, AcceptanceID: ack.AcceptanceID})
	return nil
}

// Cancel sends a single cancel request for an open order. A rejected
// cancel restores the previous state; the order stays live.
func (tx *Transaction) Cancel(ctx context.Context) error {
	tx.mu.Lock()
	switch {
	case tx.state == enum.TxStateSendingCancel || tx.state == enum.TxStateCancelAccepted:
		tx.mu.Unlock()
		return exception.ErrTransactionCancelPending
	case !tx.state.IsOpen():
		tx.mu.Unlock()
		return exception.ErrTransactionNotOpen
	}
	prev := tx.state
	tx.resumeState = prev
	tx.setState(enum.TxStateSendingCancel)
	req := exchange.CancelRequest{
		Instrument:   tx.ord.Instrument,
		AcceptanceID: tx.ord.AcceptanceID,
		ExchangeID:   tx.ord.ExchangeID,
	}
	tx.mu.Unlock()

	err := tx.delegator.Cancel(ctx, req)

	tx.mu.Lock()
	if err != nil {
		tx.setState(prev)
		tx.mu.Unlock()
		tx.emit(Event{Kind: EventCancelRejected, Err: err})
		return errors.Wrap(err, "send cancel")
	}
	tx.setState(enum.TxStateCancelAccepted)
	tx.mu.Unlock()
	tx.emit(Event{Kind: EventCancelAccepted, AcceptanceID: req.AcceptanceID})
	return nil
}

// OnLifecycleEvent applies one exchange event. Out-of-phase, duplicate
// and unroutable events are reported through the handler and dropped;
// they never change state and never fail the dispatch path.
func (tx *Transaction) OnLifecycleEvent(evt model.LifecycleEvent) {
	tx.mu.Lock()
	if tx.ord == nil {
		tx.mu.Unlock()
		tx.emit(Event{Kind: EventUnroutable, AcceptanceID: evt.AcceptanceID, Reason: "no order attached"})
		return
	}
	if tx.state.IsTerminal() {
		tx.mu.Unlock()
		tx.emit(Event{Kind: EventIgnored, AcceptanceID: evt.AcceptanceID, Reason: "event after terminal state"})
		return
	}

	var out []Event
	switch evt.Kind {
	case enum.EventKindOrder:
		out = tx.onOrdered(evt)
	case enum.EventKindOrderFailed:
		out = tx.onOrderFailed(evt)
	case enum.EventKindCancel:
		out = tx.onCanceled(evt)
	case enum.EventKindCancelFailed:
		out = tx.onCancelFailed(evt)
	case enum.EventKindExecution:
		out = tx.onExecution(evt)
	case enum.EventKindTrigger:
		out = tx.onTrigger(evt)
	case enum.EventKindComplete:
		out = tx.onComplete(evt)
	case enum.EventKindExpire:
		out = tx.onExpire(evt)
	default:
		out = []Event{{Kind: EventIgnored, AcceptanceID: evt.AcceptanceID, Reason: "unrecognized event kind"}}
	}
	tx.mu.Unlock()

	for i := range out {
		out[i].Time = evt.Time
		tx.emit(out[i])
	}
}

func (tx *Transaction) onOrdered(evt model.LifecycleEvent) []Event {
	idx, leg := tx.ord.LegByAcceptanceID(evt.AcceptanceID)
	parent := evt.AcceptanceID == tx.ord.AcceptanceID
	if leg == nil && !parent {
		return tx.unroutable(evt)
	}

	if leg != nil {
		if len(evt.ExchangeID) != 0 {
			leg.ExchangeID = evt.ExchangeID
		}
		if leg.State < enum.LegStateArmed {
			leg.State = enum.LegStateArmed
		}
	}
	if parent {
		if len(evt.ExchangeID) != 0 {
			tx.ord.ExchangeID = evt.ExchangeID
		}
		if !evt.ExpireAt.IsZero() {
			tx.ord.ExpireAt = evt.ExpireAt
		}
	}
	if tx.state == enum.TxStateSendingOrder || tx.state == enum.TxStateWaitingAccepted {
		tx.setState(enum.TxStateOrdered)
	}
	return []Event{{Kind: EventOrdered, AcceptanceID: evt.AcceptanceID, LegIndex: idx}}
}

func (tx *Transaction) onOrderFailed(evt model.LifecycleEvent) []Event {
	idx, leg := tx.ord.LegByAcceptanceID(evt.AcceptanceID)
	if leg == nil && evt.AcceptanceID != tx.ord.AcceptanceID {
		return tx.unroutable(evt)
	}
	if leg != nil {
		leg.State = enum.LegStateFailed
		leg.FailureReason = evt.Reason
	}
	tx.setState(enum.TxStateOrderFailed)
	tx.deregisterLocked()
	return []Event{{Kind: EventFailed, AcceptanceID: evt.AcceptanceID, LegIndex: idx, Reason: evt.Reason}}
}

func (tx *Transaction) onCanceled(evt model.LifecycleEvent) []Event {
	for i := range tx.ord.Legs {
		if !tx.ord.Legs[i].State.IsDone() {
			tx.ord.Legs[i].State = enum.LegStateCanceled
		}
	}
	tx.setState(enum.TxStateCanceled)
	tx.deregisterLocked()
	return []Event{{Kind: EventCanceled, AcceptanceID: evt.AcceptanceID}}
}

func (tx *Transaction) onCancelFailed(evt model.LifecycleEvent) []Event {
	if tx.state == enum.TxStateSendingCancel || tx.state == enum.TxStateCancelAccepted {
		resume := tx.resumeState
		if !resume.IsOpen() {
			resume = enum.TxStateOrdered
		}
		tx.setState(resume)
	}
	return []Event{{Kind: EventCancelRejected, AcceptanceID: evt.AcceptanceID, Reason: evt.Reason}}
}

func (tx *Transaction) onExecution(evt model.LifecycleEvent) []Event {
	idx, leg := tx.ord.LegByAcceptanceID(evt.AcceptanceID)
	if leg == nil {
		return tx.unroutable(evt)
	}

	if !leg.ApplyExecution(evt.ExecID, evt.Size) {
		return []Event{{Kind: EventIgnored, AcceptanceID: evt.AcceptanceID, LegIndex: idx, Reason: "duplicate execution"}}
	}

	out := []Event{{Kind: EventExecution, AcceptanceID: evt.AcceptanceID, LegIndex: idx}}
	switch {
	case tx.ord.Method == enum.OrderingMethodSimple && tx.ord.Filled():
		// A fully executed simple order needs no separate complete signal.
		tx.ord.CompletedLegs = 1
		tx.setState(enum.TxStateCompleted)
		tx.deregisterLocked()
		out = append(out, Event{Kind: EventCompleted, AcceptanceID: evt.AcceptanceID})
	case leg.Filled():
		tx.setState(enum.TxStateExecuted)
	default:
		tx.setState(enum.TxStatePartiallyExecuted)
	}
	return out
}

func (tx *Transaction) onTrigger(evt model.LifecycleEvent) []Event {
	if len(evt.ArmedAcceptanceID) == 0 {
		return []Event{{Kind: EventIgnored, AcceptanceID: evt.AcceptanceID, Reason: "trigger without armed acceptance id"}}
	}
	idx, leg := tx.ord.NextUnarmedLeg()
	if leg == nil {
		return []Event{{Kind: EventIgnored, AcceptanceID: evt.AcceptanceID, Reason: "trigger with all legs armed"}}
	}

	leg.AcceptanceID = evt.ArmedAcceptanceID
	leg.State = enum.LegStateArmed
	if err := tx.dispatcher.Register(evt.ArmedAcceptanceID, tx); err != nil {
		return []Event{{Kind: EventIgnored, AcceptanceID: evt.AcceptanceID, LegIndex: idx, Err: err}}
	}
	tx.registered = append(tx.registered, evt.ArmedAcceptanceID)

	// The parent's externally visible state does not change on a trigger.
	return []Event{{Kind: EventTriggered, AcceptanceID: evt.ArmedAcceptanceID, LegIndex: idx}}
}

func (tx *Transaction) onComplete(evt model.LifecycleEvent) []Event {
	idx, leg := tx.ord.LegByAcceptanceID(evt.AcceptanceID)
	if leg == nil && evt.AcceptanceID != tx.ord.AcceptanceID {
		return tx.unroutable(evt)
	}
	if leg != nil {
		if leg.State == enum.LegStateCompleted {
			return []Event{{Kind: EventIgnored, AcceptanceID: evt.AcceptanceID, LegIndex: idx, Reason: "leg already complete"}}
		}
		leg.State = enum.LegStateCompleted
	} else {
		if tx.ord.ParentCompleted {
			return []Event{{Kind: EventIgnored, AcceptanceID: evt.AcceptanceID, Reason: "order already complete"}}
		}
		tx.ord.ParentCompleted = true
	}
	tx.ord.CompletedLegs++

	out := []Event{{Kind: EventLegCompleted, AcceptanceID: evt.AcceptanceID, LegIndex: idx}}
	if tx.ord.Complete() {
		tx.setState(enum.TxStateCompleted)
		tx.deregisterLocked()
		out = append(out, Event{Kind: EventCompleted, AcceptanceID: evt.AcceptanceID})
	}
	return out
}

func (tx *Transaction) onExpire(evt model.LifecycleEvent) []Event {
	for i := range tx.ord.Legs {
		if !tx.ord.Legs[i].State.IsDone() {
			tx.ord.Legs[i].State = enum.LegStateExpired
		}
	}
	tx.setState(enum.TxStateExpired)
	tx.deregisterLocked()
	return []Event{{Kind: EventExpired, AcceptanceID: evt.AcceptanceID}}
}

func (tx *Transaction) unroutable(evt model.LifecycleEvent) []Event {
	return []Event{{
		Kind:         EventUnroutable,
		AcceptanceID: evt.AcceptanceID,
		Err:          exception.ErrOrderLegMismatch,
	}}
}

// setState writes the transaction state through to the owned order.
// Callers hold tx.mu.
func (tx *Transaction) setState(state enum.TxState) {
	tx.state = state
	if tx.ord != nil {
		tx.ord.State = state
	}
}

// deregisterLocked removes every registered acceptance id. Callers hold
// tx.mu; the dispatcher has its own lock and never calls back.
func (tx *Transaction) deregisterLocked() {
	for _, id := range tx.registered {
		tx.dispatcher.Remove(id)
	}
	tx.registered = nil
}

func (tx *Transaction) emit(evt Event) {
	if tx.handler == nil {
		return
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	if !evt.State.IsAvailable() {
		evt.State = tx.State()
	}
	tx.handler(tx, evt)
}
