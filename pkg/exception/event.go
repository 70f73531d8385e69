package exception

import "errors"

var (
	ErrEventQueueFull   = errors.New("event: queue full")
	ErrEventQueueClosed = errors.New("event: queue closed")
	ErrEventUnknownKind = errors.New("event: unknown kind")
	ErrEventUnknownSide = errors.New("event: unknown side")
	ErrEventEmptyID     = errors.New("event: empty acceptance id")
	ErrExecutionSize    = errors.New("execution: size must be positive")
)
