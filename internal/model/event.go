package model

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// LifecycleEvent is one entry of the per-instrument exchange stream.
// Events are immutable values; the same event may be delivered more
// than once and out of order relative to other acceptance ids.
type LifecycleEvent struct {
	Kind         enum.EventKind
	Instrument   string
	AcceptanceID string

	// ExchangeID is set once the exchange confirms the order.
	ExchangeID string

	// ArmedAcceptanceID carries the acceptance id assigned to the leg a
	// Trigger event arms.
	ArmedAcceptanceID string

	// ExecID identifies a single execution so duplicate delivery of the
	// same fill can be detected.
	ExecID string

	Side       enum.OrderSide
	Price      decimal.Decimal
	Size       decimal.Decimal
	Commission decimal.Decimal
	Swap       decimal.Decimal

	Reason   string
	ExpireAt time.Time
	Time     time.Time
}

// Validate checks the fields every consumer relies on.
func (e LifecycleEvent) Validate() error {
	if !e.Kind.IsAvailable() {
		return exception.ErrEventUnknownKind
	}
	if len(e.AcceptanceID) == 0 {
		return exception.ErrEventEmptyID
	}
	if e.Kind == enum.EventKindExecution {
		if !e.Side.IsAvailable() {
			return exception.ErrEventUnknownSide
		}
		if !e.Size.IsPositive() {
			return exception.ErrExecutionSize
		}
	}
	return nil
}
