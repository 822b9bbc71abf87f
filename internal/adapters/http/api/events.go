package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/ecomap/internal/domain/geo"
	"github.com/okian/ecomap/internal/domain/types"
)

// maxJoinBody bounds the size of a join request body.
const maxJoinBody = 4 << 10

// EventDependencies defines the interface for event operations.
type EventDependencies interface {
	ListEvents(ctx context.Context, q types.EventQuery) (types.EventList, error)
	GetEvent(ctx context.Context, id string, origin *geo.Coordinate) (types.EventView, error)
	RequestJoin(ctx context.Context, in types.JoinInput) (types.JoinResult, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleListEvents handles GET /events?lat=&lon=&radius_km=&category= requests.
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"
	q := r.URL.Query()

	origin, err := parseOrigin(q)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	query := types.EventQuery{Origin: origin, Category: strings.TrimSpace(q.Get("category"))}
	if raw := q.Get("radius_km"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("radius_km must be a number")))
			return
		}
		query.RadiusKm = &radius
	}

	list, err := h.deps.ListEvents(r.Context(), query)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGetEvent handles GET /events/{id} requests.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	id := r.PathValue("id")
	if strings.TrimSpace(id) == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	origin, err := parseOrigin(r.URL.Query())
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	view, err := h.deps.GetEvent(r.Context(), id, origin)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleJoin handles POST /events/{id}/join requests.
func (h *EventsHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	const op = "api.join_event"
	var in types.JoinInput
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJoinBody)).Decode(&in); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(in.ParticipantID) == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing participant_id")))
		return
	}
	if in.RequestID == "" {
		in.RequestID = r.Header.Get("Idempotency-Key")
	}
	in.EventID = r.PathValue("id")

	res, err := h.deps.RequestJoin(r.Context(), in)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// parseOrigin reads lat and lon. Both absent means the origin is unknown.
func parseOrigin(q url.Values) (*geo.Coordinate, error) {
	latRaw, lonRaw := q.Get("lat"), q.Get("lon")
	switch {
	case latRaw == "" && lonRaw == "":
		return nil, nil
	case latRaw == "" || lonRaw == "":
		return nil, errors.New("lat and lon must be given together")
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil, errors.New("lon must be a number")
	}
	c := geo.Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
