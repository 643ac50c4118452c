package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/signal-hunter/core"
	"github.com/signalsfoundry/signal-hunter/internal/config"
	"github.com/signalsfoundry/signal-hunter/internal/logging"
	"github.com/signalsfoundry/signal-hunter/internal/observability"
	"github.com/signalsfoundry/signal-hunter/match"
	"github.com/signalsfoundry/signal-hunter/model"
	"github.com/signalsfoundry/signal-hunter/timectrl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "hunt-sim: %v\n", err)
		os.Exit(1)
	}
}

// summary is what a finished run reports.
type summary struct {
	Ticks   int
	Signals int
	Found   int
	Phase   model.Phase
}

func run(ctx context.Context, args []string, logOut io.Writer) (summary, error) {
	fs := flag.NewFlagSet("hunt-sim", flag.ContinueOnError)
	envFile := fs.String("env", ".env", "optional .env file with HUNT_* settings")
	tick := fs.Duration("tick", config.DefaultTick, "tick interval")
	duration := fs.Duration("duration", config.DefaultDuration, "total match duration; 0 runs until interrupted")
	accelerated := fs.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	registryPath := fs.String("registry", config.DefaultRegistryPath, "path to the signal registry JSON")
	routePath := fs.String("route", config.DefaultRoutePath, "path to the player route JSON")
	metricsAddr := fs.String("metrics-addr", config.DefaultMetricsAddr, "HTTP address for Prometheus /metrics; empty disables")
	speed := fs.Float64("speed", config.DefaultWalkingSpeed, "player walking speed in metres per second")
	scan := fs.Bool("scan", true, "cycle frequencies while nothing on the tuned one can be heard")
	if err := fs.Parse(args); err != nil {
		return summary{}, err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return summary{}, err
	}
	// Flags given explicitly win over the environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tick":
			cfg.Tick = *tick
		case "duration":
			cfg.Duration = *duration
		case "accelerated":
			cfg.Accelerated = *accelerated
		case "registry":
			cfg.RegistryPath = *registryPath
		case "route":
			cfg.RoutePath = *routePath
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "speed":
			cfg.WalkingSpeed = *speed
		}
	})
	if cfg.Tick <= 0 || cfg.WalkingSpeed <= 0 {
		return summary{}, fmt.Errorf("%w: tick and speed must be positive", config.ErrInvalidValue)
	}

	cfg.Logging.Output = logOut
	log := logging.New(cfg.Logging)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return summary{}, err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewHuntCollector(prometheus.NewRegistry())
	if err != nil {
		return summary{}, fmt.Errorf("initialise metrics collector: %w", err)
	}
	if metricsSrv := serveMetrics(cfg.MetricsAddr, collector, log); metricsSrv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	signals, err := loadRegistry(cfg.RegistryPath)
	if err != nil {
		return summary{}, err
	}
	route, err := loadRoute(cfg.RoutePath)
	if err != nil {
		return summary{}, err
	}

	session, err := match.NewSession(model.PhaseStarted, signals,
		match.WithMatchID(cfg.MatchID),
		match.WithLogger(log),
		match.WithMetricsRecorder(collector),
	)
	if err != nil {
		return summary{}, err
	}
	ctx = session.Context(ctx)

	start := time.Now().UTC()
	track, err := core.NewWaypointTrack(start, cfg.WalkingSpeed, route...)
	if err != nil {
		return summary{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	session.Subscribe(func(ev match.Event) {
		if ev.Type != match.EventSignalDiscovered {
			return
		}
		found := 0
		for _, s := range session.Signals() {
			if s.Found {
				found++
			}
		}
		if found == len(signals) {
			_ = session.SetPhase(runCtx, model.PhaseGameOver)
			cancel()
		}
	})

	engine := match.NewEngine(session, track)
	engine.ScanWhenSilent = *scan
	if cfg.Tracing.Enabled {
		engine.TraceTicks(cfg.Tracing.TickBatch)
	}
	ticks := 0
	engine.RegisterTickListener(func(r match.TickReport) {
		ticks++
		if r.Discovered == core.NoDiscovery {
			return
		}
		logging.LoggerFromContext(runCtx).Info(runCtx, "signal collected on route",
			logging.Int("signal_index", r.Discovered),
			logging.Duration("sim_elapsed", r.SimTime.Sub(start)),
			logging.Float64("lat", r.Position.Lat),
			logging.Float64("lon", r.Position.Lon),
		)
	})

	mode := timectrl.RealTime
	if cfg.Accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(start, cfg.Tick, mode)
	tc.AddListener(func(simTime time.Time, elapsed time.Duration) {
		engine.Step(runCtx, simTime, elapsed)
	})

	log.Info(ctx, "starting hunt",
		logging.Int("signals", len(signals)),
		logging.Int("waypoints", len(route)),
		logging.Float64("route_m", track.Length()),
		logging.Duration("duration", cfg.Duration),
		logging.Duration("tick", cfg.Tick),
		logging.String("mode", mode.String()),
	)
	<-tc.Start(runCtx, cfg.Duration)
	engine.Flush()

	snap := session.Snapshot()
	out := summary{Ticks: ticks, Signals: len(snap.Signals), Phase: snap.Phase}
	for _, s := range snap.Signals {
		if s.Found {
			out.Found++
		}
	}
	log.Info(ctx, "hunt complete",
		logging.Int("ticks", out.Ticks),
		logging.Int("found", out.Found),
		logging.Int("signals", out.Signals),
		logging.String("phase", out.Phase.String()),
	)
	return out, nil
}

func serveMetrics(addr string, collector *observability.HuntCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func loadRegistry(path string) ([]model.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry %q: %w", path, err)
	}
	defer f.Close()
	return core.LoadRegistry(f)
}

func loadRoute(path string) ([]model.Coordinate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route %q: %w", path, err)
	}
	defer f.Close()
	return core.LoadRoute(f)
}
