// Package steering implements force-limited steering behaviors for 2D vehicles:
// goal seeking, pursuit and evasion, neighbor queries, and flocking.
package steering

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is returned when a tuning value is out of range.
var ErrInvalidParameter = errors.New("invalid parameter")

// Params holds the per-vehicle tuning constants.
type Params struct {
	MaxSpeed   float64 `yaml:"max_speed"`  // Ceiling on |velocity|
	MaxForce   float64 `yaml:"max_force"`  // Ceiling on any steering or applied force
	Mass       float64 `yaml:"mass"`       // Divides force into acceleration
	Perception float64 `yaml:"perception"` // Neighbor visibility radius
	Leeway     float64 `yaml:"leeway"`     // Comfortable spacing for separation
}

// DefaultParams returns the tuning used when nothing else is configured.
func DefaultParams() Params {
	return Params{
		MaxSpeed:   4,
		MaxForce:   0.2,
		Mass:       1,
		Perception: 50,
		Leeway:     25,
	}
}

// Validate checks that every value is finite and within range.
func (p Params) Validate() error {
	checks := []struct {
		name string
		val  float64
		ok   bool
	}{
		{"max_speed", p.MaxSpeed, p.MaxSpeed > 0},
		{"max_force", p.MaxForce, p.MaxForce > 0},
		{"mass", p.Mass, p.Mass > 0},
		{"perception", p.Perception, p.Perception >= 0},
		{"leeway", p.Leeway, p.Leeway >= 0},
	}
	for _, c := range checks {
		if !c.ok || math.IsInf(c.val, 0) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidParameter, c.name, c.val)
		}
	}
	return nil
}

// Weights scale the three group behaviors inside Flock.
type Weights struct {
	Separation float64 `yaml:"separation"`
	Alignment  float64 `yaml:"alignment"`
	Cohesion   float64 `yaml:"cohesion"`
}

// DefaultWeights returns the classic boids blend, favoring separation.
func DefaultWeights() Weights {
	return Weights{Separation: 1.5, Alignment: 1.0, Cohesion: 1.0}
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	for name, val := range map[string]float64{
		"separation": w.Separation,
		"alignment":  w.Alignment,
		"cohesion":   w.Cohesion,
	} {
		if !(val >= 0) || math.IsInf(val, 0) {
			return fmt.Errorf("%w: %s weight = %v", ErrInvalidParameter, name, val)
		}
	}
	return nil
}
