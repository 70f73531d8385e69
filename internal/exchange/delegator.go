package exchange

import (
	"context"
	"errors"

	"main/internal/order"
	"main/pkg/exception"
)

// SubmitAck is the exchange's answer to a successful submission.
// LegAcceptanceIDs is optional; when the exchange arms every leg at
// submission time (one-cancels-other) it carries one id per leg, in leg
// order. Otherwise only the initially armed leg gets the parent id and
// later Trigger events deliver the rest.
type SubmitAck struct {
	AcceptanceID     string
	LegAcceptanceIDs []string
}

// CancelRequest identifies the order to cancel. ExchangeID is preferred
// when known, AcceptanceID otherwise.
type CancelRequest struct {
	Instrument   string
	AcceptanceID string
	ExchangeID   string
}

// Delegator sends order requests to one exchange.
//
// Submit and Cancel fail either transiently (network, rate limit; the
// caller may retry) or with an exchange-level rejection wrapped around
// exception.ErrOrderRejected (the caller must not retry).
type Delegator interface {
	Submit(ctx context.Context, ord *order.Order) (SubmitAck, error)
	Cancel(ctx context.Context, req CancelRequest) error
}

// IsRejection reports whether the error is an application-level
// rejection rather than a transport failure.
func IsRejection(err error) bool {
	return errors.Is(err, exception.ErrOrderRejected)
}
