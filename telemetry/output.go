package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/flock/config"
)

// csvLog is an append-only CSV file. The header goes out with the first row.
type csvLog struct {
	name    string
	f       *os.File
	started bool
}

func openCSVLog(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{name: name, f: f}, nil
}

func (l *csvLog) append(records any) error {
	var err error
	if l.started {
		err = gocsv.MarshalWithoutHeaders(records, l.f)
	} else {
		err = gocsv.Marshal(records, l.f)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	l.started = true
	return nil
}

func (l *csvLog) close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}

// OutputManager writes a run's config snapshot and its per-window CSV logs
// (telemetry.csv, perf.csv) into one directory. A nil *OutputManager
// discards everything, so callers need not check whether output is enabled.
type OutputManager struct {
	dir       string
	telemetry *csvLog
	perf      *csvLog
}

// NewOutputManager creates dir and its CSV logs. An empty dir disables
// output and returns nil.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.telemetry, err = openCSVLog(dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = openCSVLog(dir, "perf.csv"); err != nil {
		om.telemetry.close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves cfg as config.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends one window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.append([]WindowStats{stats})
}

// WritePerf appends one perf summary to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return om.perf.append([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// Close closes both CSV logs.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.telemetry.close(), om.perf.close())
}
