package steering

import (
	"fmt"
	"math"

	"github.com/pthm-cable/flock/vec"
)

// Vehicle is a point mass that moves under bounded steering forces.
// Position and velocity change only through ApplyForce.
type Vehicle struct {
	pos vec.Vec2
	vel vec.Vec2

	params     Params
	arrive     ArrivePolicy
	separation SeparationPolicy
}

// State is a read-only copy of a vehicle's kinematics.
type State struct {
	Position vec.Vec2
	Velocity vec.Vec2
}

// Option configures a Vehicle at construction.
type Option func(*Vehicle)

// WithPosition sets the initial position.
func WithPosition(p vec.Vec2) Option {
	return func(v *Vehicle) { v.pos = p }
}

// WithVelocity sets the initial velocity. It is clamped to MaxSpeed.
func WithVelocity(vel vec.Vec2) Option {
	return func(v *Vehicle) { v.vel = vel }
}

// WithArrivePolicy overrides the slow-radius policy used by Arrive and Cohere.
func WithArrivePolicy(p ArrivePolicy) Option {
	return func(v *Vehicle) {
		if p != nil {
			v.arrive = p
		}
	}
}

// WithSeparationPolicy overrides the spacing policy used by Separate.
func WithSeparationPolicy(p SeparationPolicy) Option {
	return func(v *Vehicle) {
		if p != nil {
			v.separation = p
		}
	}
}

// New creates a vehicle at rest at the origin unless options say otherwise.
// Out-of-range params are rejected with ErrInvalidParameter.
func New(p Params, opts ...Option) (*Vehicle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	v := &Vehicle{
		params:     p,
		arrive:     FixedSlowRadius{},
		separation: SpeedLeeway{},
	}
	for _, opt := range opts {
		opt(v)
	}
	if !v.pos.IsFinite() || !v.vel.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite initial state %v %v", ErrInvalidParameter, v.pos, v.vel)
	}
	v.vel = v.vel.Limit(p.MaxSpeed)
	return v, nil
}

// MustNew is like New but panics on error.
func MustNew(p Params, opts ...Option) *Vehicle {
	v, err := New(p, opts...)
	if err != nil {
		panic(fmt.Sprintf("steering: %v", err))
	}
	return v
}

// Position returns the current position.
func (v *Vehicle) Position() vec.Vec2 { return v.pos }

// Velocity returns the current velocity.
func (v *Vehicle) Velocity() vec.Vec2 { return v.vel }

// Params returns the vehicle's tuning constants.
func (v *Vehicle) Params() Params { return v.params }

// Snapshot returns a copy of the current kinematic state.
func (v *Vehicle) Snapshot() State {
	return State{Position: v.pos, Velocity: v.vel}
}

// ApplyForce integrates one step: the force is clamped to MaxForce, divided
// by mass, added to velocity (clamped to MaxSpeed), and the new velocity
// moves the position by dt. A dt that is not positive and finite means one
// whole tick. Returns the change in velocity.
func (v *Vehicle) ApplyForce(force vec.Vec2, dt float64) vec.Vec2 {
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = 1
	}
	if !force.IsFinite() {
		force = vec.Zero
	}

	acc := force.Limit(v.params.MaxForce).Div(v.params.Mass)

	prev := v.vel
	v.vel = v.vel.Add(acc).Limit(v.params.MaxSpeed)
	v.pos = v.pos.Add(v.vel.Scale(dt))

	return v.vel.Sub(prev)
}

// Steer converts a desired velocity into a steering force.
// The desire is capped at MaxSpeed and the resulting force at MaxForce.
func (v *Vehicle) Steer(desired vec.Vec2) vec.Vec2 {
	desired = desired.Limit(v.params.MaxSpeed)
	return desired.Sub(v.vel).Limit(v.params.MaxForce)
}
