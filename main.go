package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/world"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config, or time-based if config is also 0)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", -1, "Worker goroutines for the compute phase (-1 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	if *seed != 0 {
		cfg.Population.Seed = *seed
	}
	if cfg.Population.Seed == 0 {
		cfg.Population.Seed = time.Now().UnixNano()
	}
	if *workers >= 0 {
		cfg.Parallel.Workers = *workers
	}

	r, err := world.NewRunner(cfg, world.Options{
		LogStats:    *logStats,
		StatsWindow: *statsWindow,
		OutputDir:   *outputDir,
	})
	if err != nil {
		slog.Error("failed to create world", "error", err)
		os.Exit(1)
	}
	defer r.Close()

	boids, predators := r.World().Counts()
	slog.Info("starting headless simulation",
		"seed", cfg.Population.Seed,
		"boids", boids,
		"predators", predators,
		"stats_window", *statsWindow,
		"max_ticks", *maxTicks,
		"output_dir", *outputDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := r.Run(ctx, *maxTicks); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("simulation stopped", "error", err)
	}
	slog.Info("simulation finished", "tick", r.World().Tick())
}
