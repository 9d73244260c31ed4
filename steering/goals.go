package steering

import (
	"math"

	"github.com/pthm-cable/flock/vec"
)

// Seek steers toward target at full speed.
func (v *Vehicle) Seek(target vec.Vec2) vec.Vec2 {
	desired := target.Sub(v.pos).SetMag(v.params.MaxSpeed)
	return v.Steer(desired)
}

// Flee is Seek reversed.
func (v *Vehicle) Flee(target vec.Vec2) vec.Vec2 {
	return v.Seek(target).Neg()
}

// Arrive seeks target but ramps the desired speed down linearly once inside
// the slow radius, reaching zero at the target.
func (v *Vehicle) Arrive(target vec.Vec2) vec.Vec2 {
	r := v.arrive.SlowRadius(v.params)
	desired := target.Sub(v.pos)
	sq := desired.SqrMag()

	if r <= 0 || sq >= r*r {
		return v.Seek(target)
	}
	return v.Steer(desired.SetMag(math.Sqrt(sq) * v.params.MaxSpeed / r))
}

// Pursue seeks where target will be one tick from now.
func (v *Vehicle) Pursue(target *Vehicle) vec.Vec2 {
	if target == nil {
		return vec.Zero
	}
	return v.Seek(target.predicted())
}

// Evade flees from where target will be one tick from now.
func (v *Vehicle) Evade(target *Vehicle) vec.Vec2 {
	if target == nil {
		return vec.Zero
	}
	return v.Flee(target.predicted())
}

// Brake steers toward a standstill.
func (v *Vehicle) Brake() vec.Vec2 {
	return v.Steer(v.vel.Neg())
}

func (v *Vehicle) predicted() vec.Vec2 {
	return v.pos.Add(v.vel)
}
