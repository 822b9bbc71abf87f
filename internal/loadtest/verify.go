package loadtest

import (
	"context"
	"fmt"

	"github.com/okian/ecomap/internal/domain/types"
	"github.com/okian/ecomap/pkg/logger"
)

// verify checks that every applied join credited its event reward, that no
// event went over capacity and that the leaderboard is ordered.
func verify(ctx context.Context, cfg Config, c *client, before []types.EventView,
	after map[string]types.EventView, accepted map[string]string, stats *Stats,
) error {
	rewards := make(map[string]int, len(before))
	applied := make(map[string]int, len(before))
	for _, e := range before {
		rewards[e.ID] = e.Reward
	}

	for participantID, eventID := range accepted {
		e, ok, err := c.rank(ctx, participantID)
		if err != nil {
			return fmt.Errorf("rank %s: %w", participantID, err)
		}
		if !ok {
			// rejected by a worker after the event filled up
			continue
		}
		stats.Ranked++
		applied[eventID]++
		if e.Points != rewards[eventID] {
			return fmt.Errorf("%w: participant %s has %d points, want %d", ErrVerify, participantID, e.Points, rewards[eventID])
		}
	}

	for _, e := range before {
		final := after[e.ID]
		if final.Participants > final.MaxParticipants {
			return fmt.Errorf("%w: event %s has %d of %d participants", ErrVerify, e.ID, final.Participants, final.MaxParticipants)
		}
		if got := final.Participants - e.Participants; got != applied[e.ID] {
			return fmt.Errorf("%w: event %s gained %d participants, %d were ranked", ErrVerify, e.ID, got, applied[e.ID])
		}
	}

	board, err := c.leaderboard(ctx, cfg.TopN)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	stats.Leaderboard = len(board)
	if err := checkOrdered(board); err != nil {
		return err
	}

	for i, e := range board {
		if i >= 10 {
			break
		}
		logger.Get().Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("participant_id", e.ParticipantID),
			logger.Int("points", e.Points),
		)
	}
	return nil
}

// checkOrdered reports whether entries are sorted by points with
// competition ranks.
func checkOrdered(entries []Entry) error {
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrVerify, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Points > prev.Points:
			return fmt.Errorf("%w: entry %d has more points than entry %d", ErrVerify, i, i-1)
		case e.Points == prev.Points && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied entries %d and %d have ranks %d and %d", ErrVerify, i-1, i, prev.Rank, e.Rank)
		case e.Points < prev.Points && e.Rank != i+1:
			return fmt.Errorf("%w: entry %d has rank %d, want %d", ErrVerify, i, e.Rank, i+1)
		}
	}
	return nil
}
