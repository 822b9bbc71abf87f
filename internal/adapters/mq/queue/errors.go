package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrQueueFull = errors.New("join queue is full")
	ErrClosed    = errors.New("join queue is closed")
)
