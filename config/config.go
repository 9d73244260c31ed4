// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/steering"
	"github.com/pthm-cable/flock/vec"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Vehicle    steering.Params  `yaml:"vehicle"`
	Policy     PolicyConfig     `yaml:"policy"`
	Flock      steering.Weights `yaml:"flock"`
	Population PopulationConfig `yaml:"population"`
	Predator   PredatorConfig   `yaml:"predator"`
	Prey       PreyConfig       `yaml:"prey"`
	Goal       GoalConfig       `yaml:"goal"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions.
type WorldConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	Margin       float64 `yaml:"margin"`         // Vehicles this close to an edge steer back toward the center
	GridCellSize float64 `yaml:"grid_cell_size"` // Spatial grid cell size (0 = use perception)
}

// PhysicsConfig holds integrator parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// PolicyConfig selects the arrive and separation variants.
type PolicyConfig struct {
	Arrive     string `yaml:"arrive"`     // "fixed" or "force_ratio"
	Separation string `yaml:"separation"` // "speed" or "leeway"
}

// PopulationConfig holds spawn parameters.
type PopulationConfig struct {
	Boids     int   `yaml:"boids"`
	Predators int   `yaml:"predators"`
	Seed      int64 `yaml:"seed"`
}

// PredatorConfig holds predator tuning. Zero-valued vehicle fields inherit
// from the shared vehicle section.
type PredatorConfig struct {
	Vehicle      steering.Params `yaml:"vehicle"`
	PursueWeight float64         `yaml:"pursue_weight"`
}

// PreyConfig holds how strongly boids react to predators.
type PreyConfig struct {
	EvadeWeight float64 `yaml:"evade_weight"`
}

// GoalConfig is a goal every initial boid starts with, on top of flocking.
type GoalConfig struct {
	Kind   string  `yaml:"kind"` // none, seek, flee, arrive or brake
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Weight float64 `yaml:"weight"`
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // Minimum population before computing in parallel
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Ticks per stats window
	PerfWindow  int `yaml:"perf_window"`  // Ticks averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Center         vec.Vec2
	PredatorParams steering.Params
	CellSize       float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse merges YAML already in memory over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() error {
	c.computeDerived()
	return c.Validate()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Center = vec.New(c.World.Width/2, c.World.Height/2)

	// Predators inherit any vehicle field they leave unset
	p := c.Predator.Vehicle
	base := c.Vehicle
	if p.MaxSpeed == 0 {
		p.MaxSpeed = base.MaxSpeed
	}
	if p.MaxForce == 0 {
		p.MaxForce = base.MaxForce
	}
	if p.Mass == 0 {
		p.Mass = base.Mass
	}
	if p.Perception == 0 {
		p.Perception = base.Perception
	}
	if p.Leeway == 0 {
		p.Leeway = base.Leeway
	}
	c.Derived.PredatorParams = p

	c.Derived.CellSize = c.World.GridCellSize
	if c.Derived.CellSize <= 0 {
		c.Derived.CellSize = max(base.Perception, p.Perception)
	}
}

// positive and nonNegative reject NaN and infinities.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	if !positive(c.World.Width) || !positive(c.World.Height) {
		return fmt.Errorf("%w: world size %vx%v", steering.ErrInvalidParameter, c.World.Width, c.World.Height)
	}
	if !nonNegative(c.World.Margin) {
		return fmt.Errorf("%w: world margin %v", steering.ErrInvalidParameter, c.World.Margin)
	}
	if !nonNegative(c.Physics.DT) {
		return fmt.Errorf("%w: physics dt %v", steering.ErrInvalidParameter, c.Physics.DT)
	}
	if err := c.Vehicle.Validate(); err != nil {
		return fmt.Errorf("vehicle: %w", err)
	}
	if err := c.Derived.PredatorParams.Validate(); err != nil {
		return fmt.Errorf("predator: %w", err)
	}
	if err := c.Flock.Validate(); err != nil {
		return fmt.Errorf("flock: %w", err)
	}
	if !nonNegative(c.Predator.PursueWeight) || !nonNegative(c.Prey.EvadeWeight) {
		return fmt.Errorf("%w: pursue/evade weights must be non-negative", steering.ErrInvalidParameter)
	}
	if _, err := c.InitialGoal(); err != nil {
		return err
	}
	if c.Population.Boids < 0 || c.Population.Predators < 0 {
		return fmt.Errorf("%w: negative population", steering.ErrInvalidParameter)
	}
	if _, err := c.ArrivePolicy(); err != nil {
		return err
	}
	if _, err := c.SeparationPolicy(); err != nil {
		return err
	}
	return nil
}

// InitialGoal returns the goal section as a component. An empty kind means
// no goal.
func (c *Config) InitialGoal() (components.Goal, error) {
	kind := components.GoalNone
	if c.Goal.Kind != "" {
		k, err := components.ParseGoalKind(c.Goal.Kind)
		if err != nil {
			return components.Goal{}, fmt.Errorf("%w: %v", steering.ErrInvalidParameter, err)
		}
		kind = k
	}
	target := vec.New(c.Goal.X, c.Goal.Y)
	if !target.IsFinite() || !nonNegative(c.Goal.Weight) {
		return components.Goal{}, fmt.Errorf("%w: goal target %v weight %v", steering.ErrInvalidParameter, target, c.Goal.Weight)
	}
	return components.Goal{Kind: kind, Target: target, Weight: c.Goal.Weight}, nil
}

// ArrivePolicy returns the configured slow-radius policy.
func (c *Config) ArrivePolicy() (steering.ArrivePolicy, error) {
	return steering.ParseArrivePolicy(c.Policy.Arrive)
}

// SeparationPolicy returns the configured separation policy.
func (c *Config) SeparationPolicy() (steering.SeparationPolicy, error) {
	return steering.ParseSeparationPolicy(c.Policy.Separation)
}

// VehicleOptions returns the construction options shared by every vehicle.
func (c *Config) VehicleOptions() ([]steering.Option, error) {
	arrive, err := c.ArrivePolicy()
	if err != nil {
		return nil, err
	}
	sep, err := c.SeparationPolicy()
	if err != nil {
		return nil, err
	}
	return []steering.Option{
		steering.WithArrivePolicy(arrive),
		steering.WithSeparationPolicy(sep),
	}, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
