package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/world"
)

// failedFitness is returned when a parameter vector cannot be simulated.
const failedFitness = 10.0

// Target describes the flock structure the optimizer is steering toward.
type Target struct {
	Order   float64 // Desired polarization in [0, 1]
	Spacing float64 // Desired mean nearest-flockmate distance
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int
	target      Target

	mu   sync.Mutex
	last seedResult // mean over seeds from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config, target Target) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: max(maxTicks/10, 1),
		target:      target,
	}
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness      float64
	polarization float64
	spacing      float64
}

// LastResult returns the seed-averaged polarization and spacing from the
// most recent evaluation.
func (fe *FitnessEvaluator) LastResult() (polarization, spacing float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last.polarization, fe.last.spacing
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Seeds run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		slog.Warn("rejected parameters", "error", err)
		return failedFitness
	}

	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var mean seedResult
	for _, r := range results {
		mean.fitness += r.fitness
		mean.polarization += r.polarization
		mean.spacing += r.spacing
	}
	n := float64(len(results))
	mean.fitness /= n
	mean.polarization /= n
	mean.spacing /= n

	fe.mu.Lock()
	fe.last = mean
	fe.mu.Unlock()

	return mean.fitness
}

// runSimulation executes a single headless run and scores its final window.
func (fe *FitnessEvaluator) runSimulation(base *config.Config, seed int64) seedResult {
	cfg := *base
	cfg.Population.Seed = seed
	// Seeds already run concurrently
	cfg.Parallel.Workers = 1

	var final *telemetry.WindowStats
	r, err := world.NewRunner(&cfg, world.Options{
		StatsWindow: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			final = &stats
		},
	})
	if err != nil {
		slog.Warn("simulation failed", "seed", seed, "error", err)
		return seedResult{fitness: failedFitness}
	}
	defer r.Close()

	if err := r.Run(context.Background(), fe.maxTicks); err != nil {
		slog.Warn("simulation failed", "seed", seed, "error", err)
		return seedResult{fitness: failedFitness}
	}

	if final == nil {
		return seedResult{fitness: failedFitness}
	}
	return seedResult{
		fitness:      fe.computeFitness(*final),
		polarization: final.Polarization,
		spacing:      final.MeanNearest,
	}
}

// copyConfig returns an independent copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness is the squared error of polarization plus the squared
// relative error of spacing. Isolated boids count as maximally spaced.
func (fe *FitnessEvaluator) computeFitness(w telemetry.WindowStats) float64 {
	orderErr := w.Polarization - fe.target.Order

	spacingErr := 1.0
	if fe.target.Spacing > 0 && w.MeanNearest > 0 {
		spacingErr = (w.MeanNearest - fe.target.Spacing) / fe.target.Spacing
	}
	spacingErr = spacingErr*(1-w.Isolated) + w.Isolated

	fitness := orderErr*orderErr + spacingErr*spacingErr
	if math.IsNaN(fitness) || math.IsInf(fitness, 0) {
		return failedFitness
	}
	return fitness
}
