package repository

import "errors"

// Sentinel kinds for catalog and leaderboard errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrEventFull      = errors.New("event is full")
	ErrAlreadyJoined  = errors.New("participant already joined event")
	ErrDuplicateEvent = errors.New("duplicate event id")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	ErrInvalidPoints  = errors.New("points must not be negative")
	ErrInvalidMember  = errors.New("invalid participant")
	ErrLoadSeed       = errors.New("failed to load seed")
)
