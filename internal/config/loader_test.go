package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/ecomap/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.JoinQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.NearbyRadiusKm, convey.ShouldEqual, 50.0)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ECOMAP_ADDR", ":8080")
			_ = os.Setenv("ECOMAP_QUEUE_SIZE", "500")
			_ = os.Setenv("ECOMAP_WORKER_COUNT", "3")
			_ = os.Setenv("ECOMAP_NEARBY_RADIUS_KM", "12.5")
			_ = os.Setenv("ECOMAP_SEED_FILE", "/etc/ecomap/events.yaml")
			_ = os.Setenv("ECOMAP_ENVIRONMENT", "staging")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.JoinQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.NearbyRadiusKm, convey.ShouldEqual, 12.5)
				convey.So(cfg.SeedFile, convey.ShouldEqual, "/etc/ecomap/events.yaml")
				convey.So(cfg.Environment, convey.ShouldEqual, "staging")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
queue_size: 300
worker_count: 4
nearby_radius_km: 25
max_leaderboard_limit: 10
log_level: debug
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("ECOMAP_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.JoinQueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.NearbyRadiusKm, convey.ShouldEqual, 25.0)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 10)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
queue_size: 300
nearby_radius_km: 25
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("ECOMAP_CONFIG", tmpFile)
			_ = os.Setenv("ECOMAP_ADDR", ":8080")
			_ = os.Setenv("ECOMAP_NEARBY_RADIUS_KM", "5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.NearbyRadiusKm, convey.ShouldEqual, 5.0)
				convey.So(cfg.JoinQueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("ECOMAP_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("ECOMAP_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("ECOMAP_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the nearby radius is not positive", func() {
			_ = os.Setenv("ECOMAP_NEARBY_RADIUS_KM", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected rather than clamped", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "nearby_radius_km")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the leaderboard limit is zero", func() {
			_ = os.Setenv("ECOMAP_MAX_LEADERBOARD_LIMIT", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("ECOMAP_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"ECOMAP_CONFIG",
		"ECOMAP_ADDR",
		"ECOMAP_LOG_LEVEL",
		"ECOMAP_QUEUE_SIZE",
		"ECOMAP_WORKER_COUNT",
		"ECOMAP_DEDUPE_SIZE",
		"ECOMAP_NEARBY_RADIUS_KM",
		"ECOMAP_MAX_LEADERBOARD_LIMIT",
		"ECOMAP_SEED_FILE",
		"ECOMAP_ENVIRONMENT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "ecomap-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
