// Package types contains the JSON shapes shared by the API and the CLI.
package types

import (
	"github.com/okian/ecomap/internal/domain/geo"
	"github.com/okian/ecomap/internal/domain/model"
	"github.com/okian/ecomap/internal/domain/proximity"
)

// EventView is an event as rendered on the map and detail screens.
// Distance fields are present only when the caller's position is known.
type EventView struct {
	model.Event

	SpotsLeft     int      `json:"spots_left"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	DistanceLabel string   `json:"distance_label,omitempty"`
}

// EventList is the body of GET /events.
type EventList struct {
	Ranked bool        `json:"ranked"`
	Events []EventView `json:"events"`
}

// Entry is a leaderboard row.
type Entry struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
}

// EventQuery selects and orders the event list.
type EventQuery struct {
	// Origin is the caller's position. nil means unknown.
	Origin *geo.Coordinate
	// RadiusKm overrides the configured nearby radius. nil means not given.
	RadiusKm *float64
	// Category filters by event type; "" or "all" keeps everything.
	Category string
}

// JoinInput is a request to join an event.
type JoinInput struct {
	EventID       string `json:"-"`
	ParticipantID string `json:"participant_id"`
	// RequestID makes retries idempotent. Generated when empty.
	RequestID string `json:"request_id"`
}

// Join statuses.
const (
	JoinAccepted  = "accepted"
	JoinDuplicate = "duplicate"
)

// JoinResult reports how a join request was handled.
type JoinResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// NewEventView builds the view of one event. ranked controls whether the
// distance is rendered.
func NewEventView(r model.RankedEvent, ranked bool) EventView {
	v := EventView{Event: r.Event, SpotsLeft: r.Event.SpotsLeft()}
	if ranked {
		d := r.DistanceKm
		v.DistanceKm = &d
		v.DistanceLabel = proximity.FormatDistance(d)
	}
	return v
}

// NewEventList converts an Arrangement into its response body.
func NewEventList(a proximity.Arrangement) EventList {
	views := make([]EventView, len(a.Events))
	for i, r := range a.Events {
		views[i] = NewEventView(r, a.Ranked)
	}
	return EventList{Ranked: a.Ranked, Events: views}
}
