package order

import (
	"github.com/shopspring/decimal"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// Leg is a single tradable condition inside an order. Conditional price
// fields are zero unless the leg kind requires them.
type Leg struct {
	Side         enum.OrderSide
	Kind         enum.LegKind
	Size         decimal.Decimal
	Price        decimal.Decimal
	TriggerPrice decimal.Decimal
	TrailOffset  decimal.Decimal

	// AcceptanceID is assigned when the leg is armed on the exchange,
	// ExchangeID once the exchange confirms it.
	AcceptanceID string
	ExchangeID   string

	Executed      decimal.Decimal
	State         enum.LegState
	FailureReason string

	// ExecIDs records every applied execution id so a redelivered fill
	// is ignored no matter how late it arrives.
	ExecIDs []string
}

func (l Leg) Validate() error {
	if !l.Side.IsAvailable() || !l.Kind.IsAvailable() {
		return exception.ErrInvalidArgument
	}
	if !l.Size.IsPositive() {
		return exception.ErrOrderSizeInvalid
	}
	if l.Kind.RequiresPrice() != l.Price.IsPositive() {
		if l.Kind.RequiresPrice() {
			return exception.ErrOrderPriceRequired
		}
		return exception.ErrOrderPriceUnexpected
	}
	if l.Kind.RequiresTrigger() != l.TriggerPrice.IsPositive() {
		if l.Kind.RequiresTrigger() {
			return exception.ErrOrderTriggerRequired
		}
		return exception.ErrOrderTriggerUnexpected
	}
	if l.Kind.RequiresTrail() != l.TrailOffset.IsPositive() {
		if l.Kind.RequiresTrail() {
			return exception.ErrOrderTrailRequired
		}
		return exception.ErrOrderTrailUnexpected
	}
	return nil
}

// ApplyExecution accumulates an executed size on the leg. It reports
// false when the execution id was already applied.
func (l *Leg) ApplyExecution(execID string, size decimal.Decimal) bool {
	if len(execID) != 0 {
		for _, id := range l.ExecIDs {
			if id == execID {
				return false
			}
		}
		l.ExecIDs = append(l.ExecIDs, execID)
	}
	l.Executed = l.Executed.Add(size)
	if l.Filled() {
		l.State = enum.LegStateExecuted
	} else {
		l.State = enum.LegStatePartiallyExecuted
	}
	return true
}

// Filled reports whether the executed size covers the requested size.
func (l Leg) Filled() bool {
	return l.Executed.GreaterThanOrEqual(l.Size)
}
