// Package selection models which event, if any, the map highlights.
package selection

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidArgument is returned when selecting an empty event id.
var ErrInvalidArgument = errors.New("invalid argument")

// State is either None or Selected(id). The zero value is None.
type State struct {
	eventID string
}

// None is the state with nothing selected.
var None = State{} //nolint:gochecknoglobals // zero value alias

// Selected returns the state highlighting eventID.
func Selected(eventID string) (State, error) {
	if eventID == "" {
		return None, fmt.Errorf("%w: event id must not be empty", ErrInvalidArgument)
	}
	return State{eventID: eventID}, nil
}

// Select moves to Selected(eventID) from any state.
func (s State) Select(eventID string) (State, error) {
	return Selected(eventID)
}

// Deselect moves to None from any state.
func (s State) Deselect() State {
	return None
}

// EventID returns the selected id and whether anything is selected.
func (s State) EventID() (string, bool) {
	return s.eventID, s.eventID != ""
}

// IsSelected reports whether eventID is the highlighted event.
func (s State) IsSelected(eventID string) bool {
	return s.eventID != "" && s.eventID == eventID
}

func (s State) String() string {
	if s.eventID == "" {
		return "None"
	}
	return "Selected(" + s.eventID + ")"
}

// Controller holds the current State for one presentation session.
type Controller struct {
	mu      sync.RWMutex
	current State
}

// NewController returns a controller starting at None.
func NewController() *Controller {
	return &Controller{}
}

// Current returns the held state.
func (c *Controller) Current() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Select swaps in Selected(eventID) and returns the held state.
// On error the held state is unchanged.
func (c *Controller) Select(eventID string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.current.Select(eventID)
	if err != nil {
		return c.current, err
	}
	c.current = next
	return c.current, nil
}

// Toggle selects eventID, or deselects it when it is already selected, and
// returns the held state. This is what tapping the same marker twice does.
func (c *Controller) Toggle(eventID string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.IsSelected(eventID) {
		c.current = c.current.Deselect()
		return c.current, nil
	}
	next, err := c.current.Select(eventID)
	if err != nil {
		return c.current, err
	}
	c.current = next
	return c.current, nil
}

// Deselect returns to None and returns the held state.
func (c *Controller) Deselect() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Deselect()
	return c.current
}
