package loadtest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ecomap/internal/domain/types"
	"github.com/okian/ecomap/pkg/logger"
)

const pollInterval = 50 * time.Millisecond

// Run executes one load test against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = withDefaults(cfg)
	log := logger.Named("loadtest")
	start := time.Now()
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting ecomap load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("participants", cfg.Participants),
		logger.Int("workers", cfg.Workers),
		logger.Float64("retryRatio", cfg.RetryRatio),
	)

	if err := c.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	before, err := c.events(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if len(before) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", ErrVerify)
	}

	joins := plan(cfg, before)
	stats := &Stats{}
	accepted := submit(ctx, cfg, c, joins, stats)
	log.Info(ctx, "joins submitted",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("backpressure", stats.Backpressure),
		logger.Int("failed", stats.Failed),
	)

	after, err := settle(ctx, cfg, c, before)
	if err != nil {
		return stats, err
	}
	if err := verify(ctx, cfg, c, before, after, accepted, stats); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "load test completed",
		logger.Int("ranked", stats.Ranked),
		logger.Int("leaderboardEntries", stats.Leaderboard),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Participants <= 0 {
		cfg.Participants = DefaultParticipants
	}
	if cfg.RetryRatio < 0 || cfg.RetryRatio > 1 {
		cfg.RetryRatio = DefaultRetryRatio
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	return cfg
}

// plan gives every new participant one join to a random event. The first
// RetryRatio of them are sent a second time with the same request id.
func plan(cfg Config, events []types.EventView) []join {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	joins := make([]join, 0, cfg.Participants+int(float64(cfg.Participants)*cfg.RetryRatio))
	for i := 0; i < cfg.Participants; i++ {
		joins = append(joins, join{
			EventID:       events[rng.IntN(len(events))].ID,
			ParticipantID: "lt-" + uuid.NewString(),
			RequestID:     uuid.NewString(),
		})
	}
	retries := int(float64(cfg.Participants) * cfg.RetryRatio)
	for i := 0; i < retries; i++ {
		j := joins[i]
		j.Retry = true
		joins = append(joins, j)
	}
	return joins
}

// submit sends joins through a pool of workers and returns the accepted
// participants mapped to their event id.
func submit(ctx context.Context, cfg Config, c *client, joins []join, stats *Stats) map[string]string {
	var (
		mu       sync.Mutex
		accepted = make(map[string]string, len(joins))
		counts   [outcomeFailed + 1]atomic.Int64
		wg       sync.WaitGroup
	)

	ch := make(chan join, cfg.Workers*2)
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				o := c.join(ctx, j)
				counts[o].Add(1)
				if o == outcomeAccepted {
					mu.Lock()
					accepted[j.ParticipantID] = j.EventID
					mu.Unlock()
				}
				if cfg.Verbose {
					logger.Get().Debug(ctx, "join sent",
						logger.String("participant_id", j.ParticipantID),
						logger.String("event_id", j.EventID),
						logger.Bool("retry", j.Retry),
						logger.Int("outcome", int(o)),
					)
				}
			}
		}()
	}

	for _, j := range joins {
		select {
		case <-ctx.Done():
		case ch <- j:
			continue
		}
		break
	}
	close(ch)
	wg.Wait()

	stats.Accepted = int(counts[outcomeAccepted].Load())
	stats.Duplicate = int(counts[outcomeDuplicate].Load())
	stats.Rejected = int(counts[outcomeRejected].Load())
	stats.Backpressure = int(counts[outcomeBackpressure].Load())
	stats.Failed = int(counts[outcomeFailed].Load())
	stats.Submitted = stats.Accepted + stats.Duplicate + stats.Rejected + stats.Backpressure + stats.Failed
	return accepted
}

// settle waits until the join queue is empty and participant counts stop
// moving, then returns the final events.
func settle(ctx context.Context, cfg Config, c *client, before []types.EventView) (map[string]types.EventView, error) {
	deadline := time.Now().Add(cfg.Settle)
	last := -1
	for {
		n, err := c.queueLength(ctx)
		if err != nil {
			return nil, fmt.Errorf("read stats: %w", err)
		}
		after := make(map[string]types.EventView, len(before))
		total := 0
		for _, e := range before {
			v, err := c.event(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			after[e.ID] = v
			total += v.Participants
		}
		if n == 0 && total == last {
			return after, nil
		}
		last = total
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: join queue did not drain within %s", ErrVerify, cfg.Settle)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
