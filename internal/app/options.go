package service

import (
	"github.com/okian/ecomap/internal/adapters/repository"
	"github.com/okian/ecomap/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of join workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting join requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of remembered join request ids.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithNearbyRadius sets the default radius for event lists with a known origin.
func WithNearbyRadius(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.nearbyRadiusKm = km
		}
	}
}

// WithSeed replaces the built-in demo catalog and leaderboard.
func WithSeed(seed repository.Seed) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
