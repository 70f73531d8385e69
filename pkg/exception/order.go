package exception

import "errors"

var (
	ErrOrderLegCount           = errors.New("order: leg count does not match ordering method")
	ErrOrderSizeInvalid        = errors.New("order: requested size must be positive")
	ErrOrderPriceRequired      = errors.New("order: price required for limit and stop-limit legs")
	ErrOrderPriceUnexpected    = errors.New("order: price set on a leg kind that takes none")
	ErrOrderTriggerRequired    = errors.New("order: trigger price required for stop and stop-limit legs")
	ErrOrderTriggerUnexpected  = errors.New("order: trigger price set on a leg kind that takes none")
	ErrOrderTrailRequired      = errors.New("order: trailing offset required for trailing-stop legs")
	ErrOrderTrailUnexpected    = errors.New("order: trailing offset set on a non-trailing leg")
	ErrOrderLegMismatch        = errors.New("order: event does not match any leg")
	ErrOrderReconcileAmbiguous = errors.New("order: snapshot cannot be reconciled unambiguously")
	ErrOrderRejected           = errors.New("order: rejected by exchange")
)
