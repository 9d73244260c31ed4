package telemetry

import (
	"log/slog"
	"slices"
	"time"
)

// Phase names for the world step.
const (
	PhaseSnapshot  = "snapshot"
	PhaseCompute   = "compute"
	PhaseCommit    = "commit"
	PhaseTelemetry = "telemetry"
)

// PerfSample is the timing of one tick. Phases is indexed like the
// collector's phase list.
type PerfSample struct {
	TickDuration time.Duration
	Phases       []time.Duration
}

// PerfCollector keeps per-phase tick timings over a rolling window.
type PerfCollector struct {
	phases []string
	slot   map[string]int

	window []PerfSample
	next   int
	count  int

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	active     int // slot of the running phase, -1 when none
}

// NewPerfCollector returns a collector averaging over windowSize ticks
// (60 when windowSize < 1). Only the named phases are timed; time spent
// in any other phase counts toward the tick but no phase.
func NewPerfCollector(windowSize int, phases ...string) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	p := &PerfCollector{
		slot:   make(map[string]int, len(phases)),
		window: make([]PerfSample, windowSize),
		active: -1,
	}
	for _, name := range phases {
		if _, dup := p.slot[name]; dup {
			continue
		}
		p.slot[name] = len(p.phases)
		p.phases = append(p.phases, name)
	}
	return p
}

// Phases returns the timed phase names in report order.
func (p *PerfCollector) Phases() []string {
	return slices.Clone(p.phases)
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PerfSample{Phases: make([]time.Duration, len(p.phases))}
	p.active = -1
}

// StartPhase closes the running phase and starts timing the named one.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	p.closePhase(now)
	if i, ok := p.slot[name]; ok {
		p.active = i
	}
	p.phaseStart = now
}

// EndTick closes the running phase and records the tick.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current.TickDuration = now.Sub(p.tickStart)
	p.Record(p.current)
	p.current = PerfSample{}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.active < 0 {
		return
	}
	if len(p.current.Phases) != len(p.phases) {
		p.current.Phases = make([]time.Duration, len(p.phases))
	}
	p.current.Phases[p.active] += now.Sub(p.phaseStart)
	p.active = -1
}

// Record adds a finished tick to the window, evicting the oldest once full.
func (p *PerfCollector) Record(s PerfSample) {
	p.window[p.next] = s
	p.next = (p.next + 1) % len(p.window)
	if p.count < len(p.window) {
		p.count++
	}
}

// PhaseStat is one phase's average cost over the window.
type PhaseStat struct {
	Name string
	Avg  time.Duration
	Pct  float64 // share of the average tick, 0-100
}

// PerfStats summarizes the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	// Phases follows the collector's phase order.
	Phases []PhaseStat
}

// Phase looks up a phase by name.
func (s PerfStats) Phase(name string) (PhaseStat, bool) {
	for _, ph := range s.Phases {
		if ph.Name == name {
			return ph, true
		}
	}
	return PhaseStat{}, false
}

func (s PerfStats) pct(name string) float64 {
	ph, _ := s.Phase(name)
	return ph.Pct
}

// Stats summarizes the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{Phases: make([]PhaseStat, len(p.phases))}
	for i, name := range p.phases {
		stats.Phases[i].Name = name
	}
	if p.count == 0 {
		return stats
	}

	var total time.Duration
	for i, s := range p.window[:p.count] {
		total += s.TickDuration
		if i == 0 || s.TickDuration < stats.MinTickDuration {
			stats.MinTickDuration = s.TickDuration
		}
		stats.MaxTickDuration = max(stats.MaxTickDuration, s.TickDuration)
		for j, d := range s.Phases {
			if j < len(stats.Phases) {
				stats.Phases[j].Avg += d
			}
		}
	}

	n := time.Duration(p.count)
	stats.AvgTickDuration = total / n
	for i := range stats.Phases {
		ph := &stats.Phases[i]
		ph.Avg /= n
		if stats.AvgTickDuration > 0 {
			ph.Pct = float64(ph.Avg) / float64(stats.AvgTickDuration) * 100
		}
	}
	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}
	return stats
}

// LogStats logs the summary, skipping phases under 0.1% of the tick.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for _, ph := range s.Phases {
		if ph.Pct > 0.1 {
			attrs = append(attrs, ph.Name+"_pct", float64(int(ph.Pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for _, ph := range s.Phases {
		attrs = append(attrs, slog.Float64(ph.Name+"_pct", ph.Pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	SnapshotPct  float64 `csv:"snapshot_pct"`
	ComputePct   float64 `csv:"compute_pct"`
	CommitPct    float64 `csv:"commit_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the step phases into a perf.csv row. Phases the
// collector was not asked to time read as zero.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		SnapshotPct:  s.pct(PhaseSnapshot),
		ComputePct:   s.pct(PhaseCompute),
		CommitPct:    s.pct(PhaseCommit),
		TelemetryPct: s.pct(PhaseTelemetry),
	}
}
