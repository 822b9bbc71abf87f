package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidJoin  = errors.New("invalid join request")
	ErrBackpressure = errors.New("join queue unavailable")
)
