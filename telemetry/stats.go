package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/vec"
)

// AgentSample is one agent's state at the end of a tick's compute phase.
type AgentSample struct {
	Predator    bool
	Velocity    vec.Vec2
	Neighbors   int     // Visible flockmates
	NearestDist float64 // Distance to the nearest flockmate, -1 if none visible
	Force       float64 // Magnitude of the force handed to the integrator
}

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32 `csv:"-"`
	WindowEndTick   int32 `csv:"window_end"`

	// Population counts at window end
	Boids     int `csv:"boids"`
	Predators int `csv:"predators"`

	// Boid speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Flock structure, averaged over the window
	Polarization  float64 `csv:"polarization"`   // 1 = all boids heading the same way
	MeanNeighbors float64 `csv:"mean_neighbors"` // Visible flockmates per boid
	MeanNearest   float64 `csv:"mean_nearest"`   // Nearest-flockmate distance (boids that see one)
	Isolated      float64 `csv:"isolated"`       // Fraction of boids with no visible flockmate
	MeanForce     float64 `csv:"mean_force"`
}

// Percentile returns the p-th quantile (p in [0, 1]) of a sorted slice,
// linearly interpolating the empirical CDF. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(min(max(p, 0), 1), stat.LinInterp, sorted, nil)
}

// ComputeSpeedStats calculates mean and percentiles of speed values.
func ComputeSpeedStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// Polarization is the length of the mean unit heading: 1 when every moving
// agent points the same way, near 0 when headings cancel out.
// Agents at rest are ignored.
func Polarization(velocities []vec.Vec2) float64 {
	var sum vec.Vec2
	n := 0
	for _, v := range velocities {
		if v.IsZero() {
			continue
		}
		sum = sum.Add(v.Unit())
		n++
	}
	if n == 0 {
		return 0
	}
	return sum.Mag() / float64(n)
}

// tickSummary condenses one tick of boid samples.
type tickSummary struct {
	polarization  float64
	meanNeighbors float64
	meanNearest   float64
	hasNearest    bool
	isolated      float64
	meanForce     float64
}

func summarize(samples []AgentSample, scratch *sampleScratch) tickSummary {
	scratch.reset()
	for _, s := range samples {
		if s.Predator {
			continue
		}
		scratch.velocities = append(scratch.velocities, s.Velocity)
		scratch.neighbors = append(scratch.neighbors, float64(s.Neighbors))
		scratch.forces = append(scratch.forces, s.Force)
		if s.NearestDist >= 0 {
			scratch.nearest = append(scratch.nearest, s.NearestDist)
		}
	}

	n := len(scratch.velocities)
	if n == 0 {
		return tickSummary{}
	}

	out := tickSummary{
		polarization:  Polarization(scratch.velocities),
		meanNeighbors: floats.Sum(scratch.neighbors) / float64(n),
		meanForce:     floats.Sum(scratch.forces) / float64(n),
		isolated:      float64(n-len(scratch.nearest)) / float64(n),
	}
	if len(scratch.nearest) > 0 {
		out.meanNearest = stat.Mean(scratch.nearest, nil)
		out.hasNearest = true
	}
	return out
}

type sampleScratch struct {
	velocities []vec.Vec2
	neighbors  []float64
	forces     []float64
	nearest    []float64
}

func (s *sampleScratch) reset() {
	s.velocities = s.velocities[:0]
	s.neighbors = s.neighbors[:0]
	s.forces = s.forces[:0]
	s.nearest = s.nearest[:0]
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("boids", s.Boids),
		slog.Int("predators", s.Predators),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("mean_neighbors", s.MeanNeighbors),
		slog.Float64("mean_nearest", s.MeanNearest),
		slog.Float64("isolated", s.Isolated),
		slog.Float64("mean_force", s.MeanForce),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
