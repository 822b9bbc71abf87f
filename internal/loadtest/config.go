// Package loadtest drives a running ecomap server with concurrent join
// requests and checks the leaderboard it produces.
package loadtest

import (
	"errors"
	"time"

	"github.com/okian/ecomap/internal/domain/types"
)

// Defaults for Config.
const (
	DefaultParticipants = 1000
	DefaultRetryRatio   = 0.1
	DefaultTopN         = 50
	DefaultTimeout      = 30 * time.Second
	DefaultSettle       = 30 * time.Second
)

// ErrVerify marks a run whose results are inconsistent.
var ErrVerify = errors.New("verification failed")

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Participants int           // Number of new participants, one join each
	RetryRatio   float64       // Fraction of joins resent with the same request id
	TopN         int           // Number of leaderboard entries to fetch
	Workers      int           // Number of concurrent HTTP workers
	Timeout      time.Duration // HTTP request timeout
	Settle       time.Duration // How long to wait for the join queue to drain
	Seed         uint64        // Seed for event selection
	Verbose      bool
}

// join is one planned join request.
type join struct {
	EventID       string
	ParticipantID string
	RequestID     string
	Retry         bool
}

// outcome classifies a join response.
type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeRejected
	outcomeBackpressure
	outcomeFailed
)

// Stats holds run statistics.
type Stats struct {
	Submitted    int
	Accepted     int
	Duplicate    int
	Rejected     int
	Backpressure int
	Failed       int
	Ranked       int
	Leaderboard  int
	Duration     time.Duration
}

// Entry is a leaderboard row as served by the API.
type Entry = types.Entry
