package game

import "errors"

// Sentinel errors. Every error returned by Service wraps exactly one of them.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("not found")
	ErrGone               = errors.New("session has ended")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInternal           = errors.New("internal error")
)
