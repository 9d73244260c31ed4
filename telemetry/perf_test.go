package telemetry

import (
	"math"
	"slices"
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10, PhaseSnapshot, PhaseCompute)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSnapshot)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseCompute)
		time.Sleep(200 * time.Microsecond)
		pc.StartPhase("untracked")
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	names := make([]string, len(stats.Phases))
	var phaseTotal time.Duration
	for i, ph := range stats.Phases {
		names[i] = ph.Name
		phaseTotal += ph.Avg
		if ph.Avg <= 0 {
			t.Errorf("phase %q not timed", ph.Name)
		}
	}
	if want := []string{PhaseSnapshot, PhaseCompute}; !slices.Equal(names, want) {
		t.Errorf("phases = %v, want %v", names, want)
	}
	if phaseTotal > stats.AvgTickDuration {
		t.Errorf("phase total %v exceeds tick %v", phaseTotal, stats.AvgTickDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(3, PhaseCompute)

	for i := 1; i <= 5; i++ {
		d := time.Duration(i) * time.Millisecond
		pc.Record(PerfSample{TickDuration: d, Phases: []time.Duration{d / 2}})
	}

	// Only ticks 3, 4 and 5 remain
	stats := pc.Stats()
	if stats.AvgTickDuration != 4*time.Millisecond {
		t.Errorf("AvgTickDuration = %v, want 4ms", stats.AvgTickDuration)
	}
	if stats.MinTickDuration != 3*time.Millisecond || stats.MaxTickDuration != 5*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 3ms/5ms", stats.MinTickDuration, stats.MaxTickDuration)
	}
	if math.Abs(stats.TicksPerSecond-250) > 1e-9 {
		t.Errorf("TicksPerSecond = %v, want 250", stats.TicksPerSecond)
	}
	if ph, _ := stats.Phase(PhaseCompute); ph.Avg != 2*time.Millisecond {
		t.Errorf("compute avg = %v, want 2ms", ph.Avg)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10, "fast", "slow")

	for i := 0; i < 5; i++ {
		pc.Record(PerfSample{
			TickDuration: 4 * time.Millisecond,
			Phases:       []time.Duration{time.Millisecond, 3 * time.Millisecond},
		})
	}

	stats := pc.Stats()
	tests := []struct {
		phase string
		want  float64
	}{
		{"fast", 25},
		{"slow", 75},
	}
	for _, tt := range tests {
		ph, ok := stats.Phase(tt.phase)
		if !ok {
			t.Errorf("phase %q missing", tt.phase)
			continue
		}
		if math.Abs(ph.Pct-tt.want) > 1e-9 {
			t.Errorf("%s pct = %v, want %v", tt.phase, ph.Pct, tt.want)
		}
	}
}

func TestPerfCollector_DuplicatePhases(t *testing.T) {
	pc := NewPerfCollector(1, PhaseCommit, PhaseCompute, PhaseCommit)
	if got, want := pc.Phases(), []string{PhaseCommit, PhaseCompute}; !slices.Equal(got, want) {
		t.Errorf("Phases = %v, want %v", got, want)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10, PhaseSnapshot)

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty collector stats = %+v", stats)
	}
	ph, ok := stats.Phase(PhaseSnapshot)
	if !ok || ph.Avg != 0 || ph.Pct != 0 {
		t.Errorf("snapshot phase = %+v, %v", ph, ok)
	}
	if _, ok := stats.Phase(PhaseCommit); ok {
		t.Error("untimed phase reported")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		TicksPerSecond:  500,
		Phases: []PhaseStat{
			{Name: PhaseCompute, Pct: 80},
			{Name: PhaseCommit, Pct: 15},
		},
	}

	row := stats.ToCSV(1200)
	if row.WindowEnd != 1200 || row.AvgTickUS != 2000 {
		t.Errorf("ToCSV header fields = %+v", row)
	}
	if row.ComputePct != 80 || row.CommitPct != 15 || row.SnapshotPct != 0 {
		t.Errorf("ToCSV phase fields = %+v", row)
	}
}
