// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/ecomap/internal/domain/geo"
	"github.com/okian/ecomap/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ListEvents(ctx context.Context, q types.EventQuery) (types.EventList, error)
	GetEvent(ctx context.Context, id string, origin *geo.Coordinate) (types.EventView, error)
	RequestJoin(ctx context.Context, in types.JoinInput) (types.JoinResult, error)

	TopN(ctx context.Context, n int) ([]Entry, error)
	EventLeaderboard(ctx context.Context, eventID string, n int) ([]Entry, error)
	Rank(ctx context.Context, participantID string) (Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		eventsHandler:      NewEventsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", Instrument("healthz", s.healthHandler.HandleHealth))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", Instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("GET /events", Instrument("events", s.eventsHandler.HandleListEvents))
	mux.HandleFunc("GET /events/{id}", Instrument("event", s.eventsHandler.HandleGetEvent))
	mux.HandleFunc("POST /events/{id}/join", Instrument("join", s.eventsHandler.HandleJoin))
	mux.HandleFunc("GET /events/{id}/leaderboard", Instrument("event_leaderboard", s.leaderboardHandler.HandleGetEventLeaderboard))
	mux.HandleFunc("GET /leaderboard", Instrument("leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("GET /rank/{id}", Instrument("rank", s.rankHandler.HandleGetRank))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status its kind maps to.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
