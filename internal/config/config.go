// Package config assembles runtime settings for the hunt simulator from an
// optional .env file and HUNT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/signalsfoundry/signal-hunter/internal/logging"
	"github.com/signalsfoundry/signal-hunter/internal/observability"
)

// Environment variables read by Load.
const (
	EnvTick         = "HUNT_TICK"
	EnvDuration     = "HUNT_DURATION"
	EnvAccelerated  = "HUNT_ACCELERATED"
	EnvRegistryPath = "HUNT_REGISTRY_PATH"
	EnvRoutePath    = "HUNT_ROUTE_PATH"
	EnvMetricsAddr  = "HUNT_METRICS_ADDR"
	EnvWalkingSpeed = "HUNT_WALKING_SPEED_MPS"
	EnvMatchID      = "HUNT_MATCH_ID"
)

// Defaults applied when a variable is unset.
const (
	DefaultTick         = time.Second / 30
	DefaultDuration     = 5 * time.Minute
	DefaultRegistryPath = "configs/registry.json"
	DefaultRoutePath    = "configs/route.json"
	DefaultMetricsAddr  = ":9090"
	DefaultWalkingSpeed = 1.4
)

// ErrInvalidValue is returned when a HUNT_* variable cannot be parsed.
var ErrInvalidValue = errors.New("invalid config value")

// Config is the resolved simulator configuration.
type Config struct {
	Tick         time.Duration
	Duration     time.Duration
	Accelerated  bool
	RegistryPath string
	RoutePath    string
	MetricsAddr  string
	WalkingSpeed float64 // metres per second
	MatchID      string

	Logging logging.Config
	Tracing observability.TracingConfig
}

// Load reads the given .env files (a missing file is not an error) and then
// resolves the configuration from the process environment. Variables already
// set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	for _, path := range envFiles {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return FromEnv()
}

// FromEnv resolves the configuration from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Tick:         DefaultTick,
		Duration:     DefaultDuration,
		Accelerated:  true,
		RegistryPath: envOr(EnvRegistryPath, DefaultRegistryPath),
		RoutePath:    envOr(EnvRoutePath, DefaultRoutePath),
		MetricsAddr:  envOr(EnvMetricsAddr, DefaultMetricsAddr),
		WalkingSpeed: DefaultWalkingSpeed,
		MatchID:      os.Getenv(EnvMatchID),
		Logging:      logging.ConfigFromEnv(),
		Tracing:      observability.TracingConfigFromEnv(),
	}

	var err error
	if cfg.Tick, err = durationEnv(EnvTick, cfg.Tick); err != nil {
		return Config{}, err
	}
	if cfg.Tick <= 0 {
		return Config{}, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, EnvTick)
	}
	if cfg.Duration, err = durationEnv(EnvDuration, cfg.Duration); err != nil {
		return Config{}, err
	}
	if cfg.Accelerated, err = boolEnv(EnvAccelerated, cfg.Accelerated); err != nil {
		return Config{}, err
	}
	if cfg.WalkingSpeed, err = floatEnv(EnvWalkingSpeed, cfg.WalkingSpeed); err != nil {
		return Config{}, err
	}
	if cfg.WalkingSpeed <= 0 {
		return Config{}, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, EnvWalkingSpeed)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, v, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, v, err)
	}
	return b, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, v, err)
	}
	return f, nil
}
