package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/ecomap/internal/loadtest"
	"github.com/okian/ecomap/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		participants = flag.Int("participants", loadtest.DefaultParticipants, "Number of new participants, one join each")
		retries      = flag.Float64("retries", loadtest.DefaultRetryRatio, "Fraction of joins resent with the same request id")
		topN         = flag.Int("top", loadtest.DefaultTopN, "Number of leaderboard entries to fetch")
		workers      = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", loadtest.DefaultTimeout, "HTTP request timeout")
		settle       = flag.Duration("settle", loadtest.DefaultSettle, "How long to wait for queued joins to apply")
		seed         = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for event selection")
		verbose      = flag.Bool("verbose", false, "Log every join")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, err := loadtest.Run(ctx, loadtest.Config{
		BaseURL:      *baseURL,
		Participants: *participants,
		RetryRatio:   *retries,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		Settle:       *settle,
		Seed:         *seed,
		Verbose:      *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
}
