package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/echothief/config"
	"github.com/pthm-cable/echothief/game"
	"github.com/pthm-cable/echothief/level"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	levelPath := flag.String("level", "", "Path to level.yaml (empty = built-in level)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	debug := flag.Bool("debug", false, "Log guard state transitions")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, -1 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = config value, then until the level ends)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	lvl, err := level.Load(*levelPath)
	if err != nil {
		slog.Error("failed to load level", "error", err)
		os.Exit(1)
	}

	rngSeed := cfg.Sim.Seed
	switch {
	case *seed > 0:
		rngSeed = *seed
	case *seed < 0:
		rngSeed = time.Now().UnixNano()
	}

	limit := cfg.Sim.MaxTicks
	if *maxTicks > 0 {
		limit = *maxTicks
	}

	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Level:          lvl,
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Logger:         logger,
	})
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"level", lvl.Name,
		"seed", rngSeed,
		"max_ticks", limit,
		"output_dir", *outputDir,
	)

	start := time.Now()
	for g.Update() {
		if limit > 0 && int(g.Tick()) >= limit {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}

	slog.Info("simulation finished",
		"tick", g.Tick(),
		"sim_time", float64(g.Tick())*cfg.Sim.DT,
		"session", g.Session().State().String(),
		"wall_ms", time.Since(start).Milliseconds(),
	)
}
