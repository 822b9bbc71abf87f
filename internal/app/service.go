// Package service wires the catalog, leaderboard and join pipeline behind
// the operations the HTTP API and CLI need.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	joinqueue "github.com/okian/ecomap/internal/adapters/mq/queue"
	workerpool "github.com/okian/ecomap/internal/adapters/mq/worker"
	"github.com/okian/ecomap/internal/adapters/repository"
	"github.com/okian/ecomap/internal/domain/dedupe"
	"github.com/okian/ecomap/internal/domain/geo"
	"github.com/okian/ecomap/internal/domain/model"
	"github.com/okian/ecomap/internal/domain/proximity"
	"github.com/okian/ecomap/internal/domain/types"
	"github.com/okian/ecomap/pkg/logger"
	"github.com/okian/ecomap/pkg/metrics"
)

const (
	defaultQueueSize      = 10_000
	defaultDedupeSize     = 50_000
	defaultNearbyRadiusKm = 50
	stopTimeout           = 10 * time.Second
)

// Service implements the API dependencies for ecomap.
type Service struct {
	mu sync.RWMutex

	catalog *repository.Catalog
	board   *repository.TreapLeaderboard
	deduper dedupe.Deduper
	queue   *joinqueue.InMemoryQueue
	pool    *workerpool.Pool

	workerCount    int
	queueSize      int
	dedupeSize     int
	nearbyRadiusKm float64
	seed           repository.Seed

	applied  atomic.Int64
	rejected atomic.Int64

	started bool
	cancel  context.CancelFunc
	logger  logger.Logger
}

// New constructs a Service seeded with the demo data unless WithSeed is given.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		nearbyRadiusKm: defaultNearbyRadiusKm,
		seed:           repository.DefaultSeed(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the stores and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	catalog, board, err := s.seed.Build(ctx)
	if err != nil {
		return fmt.Errorf("build seed: %w", err)
	}
	s.catalog = catalog
	s.board = board
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = joinqueue.NewInMemoryQueue(joinqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.catalog, s.board,
		workerpool.WithResultFunc(s.onJoinResult))
	// Workers outlive ctx so Stop can drain accepted joins after a signal.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "ecomap service started",
		logger.Int("events", catalog.Count(ctx)),
		logger.Int("participants", board.Count(ctx)),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Float64("nearbyRadiusKm", s.nearbyRadiusKm),
	)
	return nil
}

// Stop drains the join queue and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping ecomap service...")

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	err := s.pool.Shutdown(stopCtx)
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "ecomap service stopped", logger.Int64("applied", s.applied.Load()))
	return err
}

// onJoinResult forgets the request id of a join its worker rejected, so a
// retry with that id reports the real outcome instead of a duplicate.
func (s *Service) onJoinResult(ctx context.Context, r workerpool.Request, err error) {
	if err != nil {
		s.deduper.Unrecord(ctx, r.RequestID)
		s.rejected.Add(1)
		return
	}
	s.applied.Add(1)
}

// ListEvents returns the catalog filtered by category and, when the origin
// is known, by radius, nearest first.
func (s *Service) ListEvents(ctx context.Context, q types.EventQuery) (types.EventList, error) {
	catalog, err := s.catalogOrErr()
	if err != nil {
		return types.EventList{}, err
	}

	radius := s.nearbyRadiusKm
	if q.RadiusKm != nil {
		radius = *q.RadiusKm
	}
	arrangement, err := proximity.Arrange(catalog.List(ctx), q.Origin,
		proximity.WithRadius(radius),
		proximity.WithCategory(q.Category),
	)
	if err != nil {
		metrics.RecordNearbyQueryError(queryErrorKind(err))
		return types.EventList{}, err
	}

	mode := "unranked"
	if arrangement.Ranked {
		mode = "ranked"
	}
	metrics.RecordNearbyQuery(mode, len(arrangement.Events))
	return types.NewEventList(arrangement), nil
}

// GetEvent returns one event, with its distance when origin is known.
func (s *Service) GetEvent(ctx context.Context, id string, origin *geo.Coordinate) (types.EventView, error) {
	catalog, err := s.catalogOrErr()
	if err != nil {
		return types.EventView{}, err
	}
	event, err := catalog.Get(ctx, id)
	if err != nil {
		return types.EventView{}, err
	}
	if origin == nil {
		return types.NewEventView(model.RankedEvent{Event: event}, false), nil
	}
	d, err := geo.DistanceKm(*origin, event.Location.Coordinate)
	if err != nil {
		return types.EventView{}, err
	}
	return types.NewEventView(model.RankedEvent{Event: event, DistanceKm: d}, true), nil
}

// RequestJoin validates a join and hands it to the worker pool.
// A repeated RequestID is acknowledged as a duplicate without re-queueing.
func (s *Service) RequestJoin(ctx context.Context, in types.JoinInput) (types.JoinResult, error) {
	catalog, err := s.catalogOrErr()
	if err != nil {
		return types.JoinResult{}, err
	}
	in.ParticipantID = strings.TrimSpace(in.ParticipantID)
	if in.ParticipantID == "" {
		return types.JoinResult{}, fmt.Errorf("%w: missing participant_id", ErrInvalidJoin)
	}
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}

	event, err := catalog.Get(ctx, in.EventID)
	if err != nil {
		return types.JoinResult{}, err
	}

	if s.deduper.SeenAndRecord(ctx, in.RequestID) {
		metrics.RecordJoinDuplicate()
		s.logger.Debug(ctx, "duplicate join request", logger.String("request_id", in.RequestID))
		return types.JoinResult{RequestID: in.RequestID, Status: types.JoinDuplicate, Duplicate: true}, nil
	}

	// fast rejections; the worker re-checks under the catalog lock
	switch {
	case catalog.Joined(ctx, in.EventID, in.ParticipantID):
		s.deduper.Unrecord(ctx, in.RequestID)
		return types.JoinResult{}, fmt.Errorf("event %q, participant %q: %w", in.EventID, in.ParticipantID, repository.ErrAlreadyJoined)
	case event.Full():
		s.deduper.Unrecord(ctx, in.RequestID)
		return types.JoinResult{}, fmt.Errorf("event %q: %w", in.EventID, repository.ErrEventFull)
	}

	req := model.JoinRequest{
		RequestID:     in.RequestID,
		EventID:       in.EventID,
		ParticipantID: in.ParticipantID,
		AcceptedAt:    time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, req); err != nil {
		s.deduper.Unrecord(ctx, in.RequestID)
		return types.JoinResult{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
	}

	metrics.RecordJoinAccepted()
	return types.JoinResult{RequestID: in.RequestID, Status: types.JoinAccepted}, nil
}

// TopN returns the top n leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	board, err := s.boardOrErr()
	if err != nil {
		return nil, err
	}
	entries, err := board.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e)
	}
	return out, nil
}

// EventLeaderboard ranks the participants who joined eventID among themselves
// and returns at most n of them.
func (s *Service) EventLeaderboard(ctx context.Context, eventID string, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, repository.ErrInvalidLimit
	}
	catalog, err := s.catalogOrErr()
	if err != nil {
		return nil, err
	}
	board, err := s.boardOrErr()
	if err != nil {
		return nil, err
	}
	ids, err := catalog.Participants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	standings := board.Standings(ctx, ids)
	if len(standings) > n {
		standings = standings[:n]
	}
	out := make([]types.Entry, len(standings))
	for i, e := range standings {
		out[i] = toEntry(e)
	}
	return out, nil
}

// Rank returns the leaderboard entry of a participant.
func (s *Service) Rank(ctx context.Context, participantID string) (types.Entry, error) {
	board, err := s.boardOrErr()
	if err != nil {
		return types.Entry{}, err
	}
	e, err := board.Rank(ctx, participantID)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"nearbyRadiusKm": s.nearbyRadiusKm,
		"joinsApplied":   s.applied.Load(),
		"joinsRejected":  s.rejected.Load(),
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["events"] = s.catalog.Count(ctx)
		stats["participants"] = s.board.Count(ctx)
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func (s *Service) catalogOrErr() (*repository.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.catalog, nil
}

func (s *Service) boardOrErr() (*repository.TreapLeaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.board, nil
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:          e.Rank,
		ParticipantID: e.ParticipantID,
		Name:          e.Name,
		Points:        e.Points,
	}
}

func queryErrorKind(err error) string {
	switch {
	case errors.Is(err, geo.ErrInvalidCoordinate):
		return "invalid_coordinate"
	case errors.Is(err, proximity.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "internal"
	}
}
