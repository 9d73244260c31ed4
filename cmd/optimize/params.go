package main

import (
	"github.com/pthm-cable/flock/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Flocking weights
			{Name: "separation", Path: "flock.separation", Min: 0, Max: 4, Default: 1.5},
			{Name: "alignment", Path: "flock.alignment", Min: 0, Max: 4, Default: 1.0},
			{Name: "cohesion", Path: "flock.cohesion", Min: 0, Max: 4, Default: 1.0},
			// Sensing
			{Name: "perception", Path: "vehicle.perception", Min: 15, Max: 150, Default: 50},
			// Predator response
			{Name: "evade_weight", Path: "prey.evade_weight", Min: 0, Max: 6, Default: 3},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived values. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)

	cfg.Flock.Separation = clamped[0]
	cfg.Flock.Alignment = clamped[1]
	cfg.Flock.Cohesion = clamped[2]
	cfg.Vehicle.Perception = clamped[3]
	cfg.Prey.EvadeWeight = clamped[4]

	return cfg.Recompute()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Flock.Separation,
		cfg.Flock.Alignment,
		cfg.Flock.Cohesion,
		cfg.Vehicle.Perception,
		cfg.Prey.EvadeWeight,
	}
}
