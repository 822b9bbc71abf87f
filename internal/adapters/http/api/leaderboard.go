package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const defaultLeaderboardLimit = 10

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	EventLeaderboard(ctx context.Context, eventID string, n int) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit < 1 {
		maxLimit = 100
	}
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n, ok := h.limit(w, r, op)
	if !ok {
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetEventLeaderboard handles GET /events/{id}/leaderboard?limit=N requests.
func (h *LeaderboardHandler) HandleGetEventLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event_leaderboard"
	id := r.PathValue("id")
	if strings.TrimSpace(id) == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	n, ok := h.limit(w, r, op)
	if !ok {
		return
	}
	entries, err := h.deps.EventLeaderboard(r.Context(), id, n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// limit reads ?limit=, writing the error response when it is unusable.
func (h *LeaderboardHandler) limit(w http.ResponseWriter, r *http.Request, op string) (int, bool) {
	n := min(defaultLeaderboardLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return 0, false
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			WrapKind(op, ErrBadRequest, fmt.Errorf("limit must not exceed %d", h.maxLimit)))
		return 0, false
	}
	return n, true
}
