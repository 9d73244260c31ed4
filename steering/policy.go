package steering

import "fmt"

// ArrivePolicy decides the radius inside which Arrive starts slowing down.
type ArrivePolicy interface {
	SlowRadius(p Params) float64
}

// SeparationPolicy decides the radius inside which a neighbor is too close.
type SeparationPolicy interface {
	Threshold(v *Vehicle) float64
}

// FixedSlowRadius slows down within MaxSpeed units of the target.
type FixedSlowRadius struct{}

func (FixedSlowRadius) SlowRadius(p Params) float64 { return p.MaxSpeed }

// ForceRatioSlowRadius slows down within MaxSpeed/MaxForce units of the target.
type ForceRatioSlowRadius struct{}

func (ForceRatioSlowRadius) SlowRadius(p Params) float64 { return p.MaxSpeed / p.MaxForce }

// SlowRadiusFunc adapts a function to ArrivePolicy.
type SlowRadiusFunc func(p Params) float64

func (f SlowRadiusFunc) SlowRadius(p Params) float64 { return f(p) }

// FixedLeeway keeps neighbors outside the vehicle's Leeway radius.
type FixedLeeway struct{}

func (FixedLeeway) Threshold(v *Vehicle) float64 { return v.params.Leeway }

// SpeedLeeway uses |velocity|^2 / MaxForce, so the comfort zone shrinks
// to nothing as the vehicle comes to rest.
type SpeedLeeway struct{}

func (SpeedLeeway) Threshold(v *Vehicle) float64 {
	return v.vel.SqrMag() / v.params.MaxForce
}

// ThresholdFunc adapts a function to SeparationPolicy.
type ThresholdFunc func(v *Vehicle) float64

func (f ThresholdFunc) Threshold(v *Vehicle) float64 { return f(v) }

// Policy names accepted by ParseArrivePolicy and ParseSeparationPolicy.
const (
	ArriveFixed      = "fixed"
	ArriveForceRatio = "force_ratio"
	SeparationSpeed  = "speed"
	SeparationLeeway = "leeway"
)

// ParseArrivePolicy maps a config name to an ArrivePolicy.
// An empty name selects the default.
func ParseArrivePolicy(name string) (ArrivePolicy, error) {
	switch name {
	case "", ArriveFixed:
		return FixedSlowRadius{}, nil
	case ArriveForceRatio:
		return ForceRatioSlowRadius{}, nil
	}
	return nil, fmt.Errorf("%w: unknown arrive policy %q", ErrInvalidParameter, name)
}

// ParseSeparationPolicy maps a config name to a SeparationPolicy.
// An empty name selects the default.
func ParseSeparationPolicy(name string) (SeparationPolicy, error) {
	switch name {
	case "", SeparationSpeed:
		return SpeedLeeway{}, nil
	case SeparationLeeway:
		return FixedLeeway{}, nil
	}
	return nil, fmt.Errorf("%w: unknown separation policy %q", ErrInvalidParameter, name)
}
