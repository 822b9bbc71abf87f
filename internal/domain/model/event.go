// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/ecomap/internal/domain/geo"
)

// ErrInvalidEvent is returned by Event.Validate.
var ErrInvalidEvent = errors.New("invalid event")

// EventLocation is where an event takes place.
type EventLocation struct {
	geo.Coordinate `koanf:",squash"`

	Name    string `json:"name" koanf:"name"`
	Address string `json:"address,omitempty" koanf:"address"`
}

// Event is a community environmental event shown on the map.
// Date and Time are display strings and are never parsed.
type Event struct {
	ID              string        `json:"id" koanf:"id"`
	Title           string        `json:"title" koanf:"title"`
	Description     string        `json:"description" koanf:"description"`
	Date            string        `json:"date" koanf:"date"`
	Time            string        `json:"time" koanf:"time"`
	Participants    int           `json:"participants" koanf:"participants"`
	MaxParticipants int           `json:"max_participants" koanf:"max_participants"`
	Location        EventLocation `json:"location" koanf:"location"`
	Reward          int           `json:"reward" koanf:"reward"`
	Type            string        `json:"type" koanf:"type"`
}

// Validate checks identity, capacity and location of e.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidEvent)
	}
	if e.MaxParticipants <= 0 {
		return fmt.Errorf("%w: %s: max participants must be positive", ErrInvalidEvent, e.ID)
	}
	if e.Participants < 0 || e.Participants > e.MaxParticipants {
		return fmt.Errorf("%w: %s: participants %d outside [0, %d]", ErrInvalidEvent, e.ID, e.Participants, e.MaxParticipants)
	}
	if e.Reward < 0 {
		return fmt.Errorf("%w: %s: reward must not be negative", ErrInvalidEvent, e.ID)
	}
	if err := e.Location.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidEvent, e.ID, err)
	}
	return nil
}

// Full reports whether no seats are left.
func (e Event) Full() bool {
	return e.Participants >= e.MaxParticipants
}

// SpotsLeft returns the remaining capacity.
func (e Event) SpotsLeft() int {
	if e.Full() {
		return 0
	}
	return e.MaxParticipants - e.Participants
}

// RankedEvent pairs an event with its distance from an origin.
type RankedEvent struct {
	Event      Event
	DistanceKm float64
}

// Participant is a member of the community leaderboard.
type Participant struct {
	ID     string `koanf:"id"`
	Name   string `koanf:"name"`
	Points int    `koanf:"points"`
	Events int    `koanf:"events"` // events joined
}

// JoinRequest asks for a participant to be added to an event.
// RequestID makes retries idempotent.
type JoinRequest struct {
	RequestID     string
	EventID       string
	ParticipantID string
	AcceptedAt    time.Time
}
