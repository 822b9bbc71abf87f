package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/ecomap/internal/domain/model"
	"github.com/okian/ecomap/pkg/metrics"
)

type catalogRecord struct {
	event  model.Event
	joined map[string]struct{}
	roster []string
}

// Catalog is an in-memory EventStore. Events keep the order they were seeded in.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*catalogRecord
}

var _ EventStore = (*Catalog)(nil)

// NewCatalog validates events and builds a catalog from them.
func NewCatalog(events []model.Event) (*Catalog, error) {
	c := &Catalog{
		order: make([]string, 0, len(events)),
		byID:  make(map[string]*catalogRecord, len(events)),
	}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.byID[e.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEvent, e.ID)
		}
		c.byID[e.ID] = &catalogRecord{event: e, joined: make(map[string]struct{})}
		c.order = append(c.order, e.ID)
	}
	metrics.UpdateCatalogEvents(len(c.order))
	return c, nil
}

// List returns a copy of every event in catalog order.
func (c *Catalog) List(_ context.Context) []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Event, len(c.order))
	for i, id := range c.order {
		out[i] = c.byID[id].event
	}
	return out
}

// Get returns the event with the given id.
func (c *Catalog) Get(_ context.Context, id string) (model.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byID[id]
	if !ok {
		return model.Event{}, fmt.Errorf("event %q: %w", id, ErrNotFound)
	}
	return rec.event, nil
}

// Join records participantID as attending eventID. Participants never
// exceed MaxParticipants.
func (c *Catalog) Join(_ context.Context, eventID, participantID string) (model.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.byID[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	if _, dup := rec.joined[participantID]; dup {
		return rec.event, fmt.Errorf("event %q, participant %q: %w", eventID, participantID, ErrAlreadyJoined)
	}
	if rec.event.Full() {
		return rec.event, fmt.Errorf("event %q: %w", eventID, ErrEventFull)
	}
	rec.joined[participantID] = struct{}{}
	rec.roster = append(rec.roster, participantID)
	rec.event.Participants++
	return rec.event, nil
}

// Joined reports whether participantID already joined eventID.
func (c *Catalog) Joined(_ context.Context, eventID, participantID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byID[eventID]
	if !ok {
		return false
	}
	_, joined := rec.joined[participantID]
	return joined
}

// Participants returns the ids that joined eventID, in join order.
// Seeded attendance counts carry no ids and are not included.
func (c *Catalog) Participants(_ context.Context, eventID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byID[eventID]
	if !ok {
		return nil, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	return append([]string(nil), rec.roster...), nil
}

// Count returns the number of events.
func (c *Catalog) Count(_ context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
