// Package proximity filters and orders events by distance from an origin.
// Every function here is pure: inputs are never mutated.
package proximity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/ecomap/internal/domain/geo"
	"github.com/okian/ecomap/internal/domain/model"
)

// CategoryAll selects every event type.
const CategoryAll = "all"

// Nearby returns the events within radiusKm of origin, in input order.
func Nearby(events []model.Event, origin geo.Coordinate, radiusKm float64) ([]model.Event, error) {
	if err := validateRadius(radiusKm); err != nil {
		return nil, err
	}
	distances, err := distancesFrom(events, origin)
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(events))
	for i, e := range events {
		if distances[i] <= radiusKm {
			out = append(out, e)
		}
	}
	return out, nil
}

// RankByDistance returns one RankedEvent per input event, nearest first.
// Events at exactly equal distance keep their input order.
func RankByDistance(events []model.Event, origin geo.Coordinate) ([]model.RankedEvent, error) {
	distances, err := distancesFrom(events, origin)
	if err != nil {
		return nil, err
	}

	ranked := make([]model.RankedEvent, len(events))
	for i, e := range events {
		ranked[i] = model.RankedEvent{Event: e, DistanceKm: distances[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked, nil
}

// FilterByType keeps events whose Type matches category, case-insensitively.
// An empty category or CategoryAll keeps everything.
func FilterByType(events []model.Event, category string) []model.Event {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		out := make([]model.Event, len(events))
		copy(out, events)
		return out
	}

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if strings.EqualFold(e.Type, category) {
			out = append(out, e)
		}
	}
	return out
}

// Arrangement is the list the presentation layer renders.
// When Ranked is false no origin was known and DistanceKm is unset.
type Arrangement struct {
	Ranked bool
	Events []model.RankedEvent
}

// Arrange applies the category filter and, when origin is known, the radius
// filter and distance ranking. A nil origin is a valid input: the filtered
// list is returned in catalog order without distances.
func Arrange(events []model.Event, origin *geo.Coordinate, opts ...Option) (Arrangement, error) {
	o := arrangeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.radiusSet {
		if err := validateRadius(o.radiusKm); err != nil {
			return Arrangement{}, err
		}
	}

	selected := FilterByType(events, o.category)

	if origin == nil {
		out := make([]model.RankedEvent, len(selected))
		for i, e := range selected {
			out[i] = model.RankedEvent{Event: e}
		}
		return Arrangement{Events: out}, nil
	}

	ranked, err := RankByDistance(selected, *origin)
	if err != nil {
		return Arrangement{}, err
	}
	if o.radiusSet {
		// ranked is sorted, so the cut is a prefix
		cut := sort.Search(len(ranked), func(i int) bool {
			return ranked[i].DistanceKm > o.radiusKm
		})
		ranked = ranked[:cut]
	}
	return Arrangement{Ranked: true, Events: ranked}, nil
}

// FormatDistance renders a distance with one decimal, e.g. "2.9 km".
// Exact halves round up, so 3.25 is "3.3 km".
func FormatDistance(km float64) string {
	// x.25 and x.75 are the only values that tie exactly at one decimal
	if q := km * 4; q == math.Trunc(q) && math.Mod(q, 2) != 0 {
		km = math.Ceil(km*10) / 10
	}
	return fmt.Sprintf("%.1f km", km)
}

func validateRadius(radiusKm float64) error {
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidArgument, radiusKm)
	}
	return nil
}

func distancesFrom(events []model.Event, origin geo.Coordinate) ([]float64, error) {
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	distances := make([]float64, len(events))
	for i, e := range events {
		if err := e.Location.Validate(); err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		distances[i] = geo.Haversine(origin, e.Location.Coordinate)
	}
	return distances, nil
}
