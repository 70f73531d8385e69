package exception

import "errors"

var (
	ErrTransactionExists        = errors.New("transaction: acceptance id already registered")
	ErrTransactionNotIdle       = errors.New("transaction: submit requires idle state")
	ErrTransactionNotOpen       = errors.New("transaction: cancel requires an open order")
	ErrTransactionCancelPending = errors.New("transaction: cancel already in flight")
	ErrSubmitCanceled           = errors.New("transaction: send canceled by caller")
	ErrSubmitRetriesExhausted   = errors.New("transaction: submit retries exhausted")
)
