// Package repository holds the in-memory event catalog and community leaderboard.
package repository

import (
	"context"

	"github.com/okian/ecomap/internal/domain/model"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank          int
	ParticipantID string
	Name          string
	Points        int
	Events        int
}

// EventStore provides the event catalog.
type EventStore interface {
	// List returns every event in catalog order.
	List(ctx context.Context) []model.Event

	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (model.Event, error)

	// Join adds participantID to the event and returns the updated event.
	// Fails with ErrNotFound, ErrEventFull or ErrAlreadyJoined.
	Join(ctx context.Context, eventID, participantID string) (model.Event, error)

	// Participants returns who joined the event through Join.
	Participants(ctx context.Context, eventID string) ([]string, error)

	Count(ctx context.Context) int
}

// Leaderboard tracks community points.
type Leaderboard interface {
	// Register adds or replaces a participant.
	Register(ctx context.Context, p model.Participant) error

	// Credit adds points for one joined event, creating the participant if needed.
	Credit(ctx context.Context, participantID string, points int) (Entry, error)

	// Rank returns ErrNotFound if the participant is unknown.
	Rank(ctx context.Context, participantID string) (Entry, error)

	// TopN returns the top-N entries ordered by points desc, then id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Standings ranks only the given participants among themselves.
	Standings(ctx context.Context, participantIDs []string) []Entry

	Count(ctx context.Context) int
}
