package world

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/telemetry"
)

// stepPhases are the timed parts of Runner.Step in execution order.
var stepPhases = []string{
	telemetry.PhaseSnapshot,
	telemetry.PhaseCompute,
	telemetry.PhaseCommit,
	telemetry.PhaseTelemetry,
}

// Options configures a Runner.
type Options struct {
	LogStats    bool   // Log window and perf stats via slog
	StatsWindow int    // Ticks per stats window (0 = use config)
	OutputDir   string // Directory for CSV logs and config snapshot (empty = disabled)

	// StatsCallback, if set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Runner drives a World and feeds its telemetry.
type Runner struct {
	world         *World
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

// NewRunner builds a world from cfg and wires telemetry around it.
func NewRunner(cfg *config.Config, opts Options) (*Runner, error) {
	w, err := New(cfg)
	if err != nil {
		return nil, err
	}
	cfg = w.Config()

	window := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		window = opts.StatsWindow
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		w.Close()
		om.Close()
		return nil, err
	}

	r := &Runner{
		world:         w,
		collector:     telemetry.NewCollector(window),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow, stepPhases...),
		outputManager: om,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	w.SetPerf(r.perfCollector)
	return r, nil
}

// World returns the underlying world.
func (r *Runner) World() *World { return r.world }

// Step advances one tick and records telemetry.
func (r *Runner) Step() {
	r.perfCollector.StartTick()
	r.world.Step()

	r.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	r.collector.Record(r.world.Samples())
	r.flushTelemetry()
	r.perfCollector.EndTick()
}

// Run steps until maxTicks is reached (0 = unlimited) or ctx is done.
func (r *Runner) Run(ctx context.Context, maxTicks int) error {
	for maxTicks <= 0 || int(r.world.Tick()) < maxTicks {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Step()
	}
	return nil
}

// flushTelemetry emits a window once the collector says it is due.
func (r *Runner) flushTelemetry() {
	tick := r.world.Tick()
	if !r.collector.ShouldFlush(tick) {
		return
	}

	stats := r.collector.Flush(tick)
	perfStats := r.perfCollector.Stats()

	if r.statsCallback != nil {
		r.statsCallback(stats)
	}

	if r.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if r.outputManager != nil {
		if err := r.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := r.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// Close stops the world's workers and closes output files.
func (r *Runner) Close() error {
	r.world.Close()
	return r.outputManager.Close()
}
