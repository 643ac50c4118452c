package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearHuntEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvTick, EnvDuration, EnvAccelerated, EnvRegistryPath, EnvRoutePath,
		EnvMetricsAddr, EnvWalkingSpeed, EnvMatchID,
		"LOG_LEVEL", "LOG_FORMAT", "HUNT_TRACING_ENABLED", "HUNT_TRACING_EXPORTER",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearHuntEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Tick != DefaultTick || cfg.Duration != DefaultDuration {
		t.Fatalf("tick/duration = %v/%v, want %v/%v", cfg.Tick, cfg.Duration, DefaultTick, DefaultDuration)
	}
	if !cfg.Accelerated {
		t.Fatalf("expected accelerated by default")
	}
	if cfg.RegistryPath != DefaultRegistryPath || cfg.RoutePath != DefaultRoutePath {
		t.Fatalf("paths = %q, %q", cfg.RegistryPath, cfg.RoutePath)
	}
	if cfg.MetricsAddr != DefaultMetricsAddr || cfg.WalkingSpeed != DefaultWalkingSpeed {
		t.Fatalf("metrics addr/speed = %q/%v", cfg.MetricsAddr, cfg.WalkingSpeed)
	}
	if cfg.Tracing.Enabled || cfg.Tracing.ServiceName != "signal-hunter" {
		t.Fatalf("tracing = %+v, want disabled signal-hunter", cfg.Tracing)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearHuntEnv(t)
	t.Setenv(EnvTick, "100ms")
	t.Setenv(EnvDuration, "90s")
	t.Setenv(EnvAccelerated, "false")
	t.Setenv(EnvRegistryPath, "/tmp/reg.json")
	t.Setenv(EnvWalkingSpeed, "2.5")
	t.Setenv(EnvMatchID, "room-42")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Tick != 100*time.Millisecond || cfg.Duration != 90*time.Second {
		t.Fatalf("tick/duration = %v/%v", cfg.Tick, cfg.Duration)
	}
	if cfg.Accelerated {
		t.Fatalf("expected real-time mode")
	}
	if cfg.RegistryPath != "/tmp/reg.json" || cfg.WalkingSpeed != 2.5 || cfg.MatchID != "room-42" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level = %q, want debug", cfg.Logging.Level)
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	cases := map[string]string{
		EnvTick:         "fast",
		EnvDuration:     "long",
		EnvAccelerated:  "maybe",
		EnvWalkingSpeed: "brisk",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearHuntEnv(t)
			t.Setenv(key, value)
			if _, err := FromEnv(); !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("FromEnv with %s=%q error = %v, want ErrInvalidValue", key, value, err)
			}
		})
	}
}

func TestFromEnv_RejectsNonPositive(t *testing.T) {
	clearHuntEnv(t)
	t.Setenv(EnvTick, "0s")
	if _, err := FromEnv(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("zero tick error = %v, want ErrInvalidValue", err)
	}

	clearHuntEnv(t)
	t.Setenv(EnvWalkingSpeed, "-1")
	if _, err := FromEnv(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("negative speed error = %v, want ErrInvalidValue", err)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearHuntEnv(t)
	// godotenv only fills variables that are unset, not ones set to "".
	os.Unsetenv(EnvMetricsAddr)
	os.Unsetenv(EnvRoutePath)
	t.Cleanup(func() {
		os.Unsetenv(EnvMetricsAddr)
		os.Unsetenv(EnvRoutePath)
	})

	path := filepath.Join(t.TempDir(), ".env")
	contents := EnvMetricsAddr + "=:9191\n" + EnvRoutePath + "=routes/loop.json\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MetricsAddr != ":9191" || cfg.RoutePath != "routes/loop.json" {
		t.Fatalf("cfg = %+v, want values from .env", cfg)
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearHuntEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Tick != DefaultTick {
		t.Fatalf("tick = %v, want default", cfg.Tick)
	}
}
