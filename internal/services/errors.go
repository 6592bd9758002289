package services

import "errors"

// Operation errors. Handlers map these to HTTP status codes; every one of
// them aborts and rolls back the whole operation that raised it.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNoDeposit          = errors.New("no deposit recorded")
	ErrNoFees             = errors.New("no fees accumulated")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrOperationPaused    = errors.New("operation paused")
	ErrOperationNotPaused = errors.New("operation not paused")
	ErrReentrant          = errors.New("reentrant call rejected")
)
