package order

import (
	"time"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// Order is one leg (simple) or an ordered list of 2-3 legs forming a
// composite order. The leg count is fixed by the ordering method and
// never changes after construction; the leg index is its semantic role
// (leg 0 is the triggering leg in if-done variants).
type Order struct {
	Instrument string
	Method     enum.OrderingMethod
	Legs       []Leg

	AcceptanceID string
	ExchangeID   string

	State         enum.TxState
	CompletedLegs int
	// ParentCompleted guards the completion counter against a
	// redelivered order-level complete signal, the way a leg's done
	// state guards leg-level ones.
	ParentCompleted bool
	ExpireAt        time.Time
}

func New(instrument string, method enum.OrderingMethod, legs ...Leg) (*Order, error) {
	if !method.IsAvailable() {
		return nil, exception.ErrInvalidArgument
	}
	if len(legs) != method.LegCount() {
		return nil, exception.ErrOrderLegCount
	}
	for i := range legs {
		if err := legs[i].Validate(); err != nil {
			return nil, err
		}
		legs[i].State = enum.LegStatePending
	}
	return &Order{
		Instrument: instrument,
		Method:     method,
		Legs:       legs,
		State:      enum.TxStateIdle,
	}, nil
}

func Simple(instrument string, leg Leg) (*Order, error) {
	return New(instrument, enum.OrderingMethodSimple, leg)
}

func IfDone(instrument string, trigger, done Leg) (*Order, error) {
	return New(instrument, enum.OrderingMethodIfDone, trigger, done)
}

func OneCancelsOther(instrument string, first, second Leg) (*Order, error) {
	return New(instrument, enum.OrderingMethodOneCancelsOther, first, second)
}

func IfDoneOneCancelsOther(instrument string, trigger, first, second Leg) (*Order, error) {
	return New(instrument, enum.OrderingMethodIfDoneOneCancelsOther, trigger, first, second)
}

// LegByAcceptanceID returns the leg the acceptance id belongs to.
func (o *Order) LegByAcceptanceID(id string) (int, *Leg) {
	if len(id) == 0 {
		return -1, nil
	}
	for i := range o.Legs {
		if o.Legs[i].AcceptanceID == id {
			return i, &o.Legs[i]
		}
	}
	return -1, nil
}

// NextUnarmedLeg returns the first leg without an acceptance id.
func (o *Order) NextUnarmedLeg() (int, *Leg) {
	for i := range o.Legs {
		if len(o.Legs[i].AcceptanceID) == 0 {
			return i, &o.Legs[i]
		}
	}
	return -1, nil
}

// Filled reports whether every leg reached its requested size.
func (o *Order) Filled() bool {
	for i := range o.Legs {
		if !o.Legs[i].Filled() {
			return false
		}
	}
	return true
}

// Complete reports whether enough legs signaled completion for the
// ordering method to consider the whole order done.
func (o *Order) Complete() bool {
	threshold := o.Method.CompleteThreshold()
	return threshold > 0 && o.CompletedLegs >= threshold
}
