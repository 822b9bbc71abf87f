// Package config defines service configuration and its loading.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers defaults, an optional YAML file and ECOMAP_ env vars.
//   - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// JoinQueueSize bounds the in-memory join request queue.
	JoinQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of join workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the join request deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// NearbyRadiusKm is the default radius for nearby event queries.
	NearbyRadiusKm float64 `koanf:"nearby_radius_km"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SeedFile optionally points at a YAML catalog; empty uses the built-in events.
	SeedFile string `koanf:"seed_file"`

	// Environment, when set, is attached to every metric as the env label.
	Environment string `koanf:"environment"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		JoinQueueSize:       10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		NearbyRadiusKm:      50,
		MaxLeaderboardLimit: 100,
	}
}
