package steering

import (
	"math"

	"github.com/pthm-cable/flock/vec"
)

// MinSeparation is the distance floor used when weighting repulsion, so
// coincident neighbors repel hard instead of dividing by zero.
const MinSeparation = 1e-3

// Separate steers away from neighbors closer than the separation threshold,
// weighting each by inverse distance.
func (v *Vehicle) Separate(neighbors []*Vehicle) vec.Vec2 {
	r := v.separation.Threshold(v)
	rSq := r * r

	var sum vec.Vec2
	count := 0
	for _, n := range neighbors {
		if n == nil || n == v {
			continue
		}
		dSq := v.pos.SqrDist(n.pos)
		if dSq >= rSq {
			continue
		}

		away := v.pos.Sub(n.pos)
		d := math.Sqrt(dSq)
		if d < MinSeparation {
			d = MinSeparation
			if away.IsZero() {
				away = v.fallbackHeading()
			}
		}
		sum = sum.Add(away.SetMag(1 / d))
		count++
	}

	if count == 0 {
		return vec.Zero
	}
	return v.Steer(sum.SetMag(v.params.MaxSpeed))
}

// Align steers toward the neighbors' combined heading.
func (v *Vehicle) Align(neighbors []*Vehicle) vec.Vec2 {
	var sum vec.Vec2
	count := 0
	for _, n := range neighbors {
		if n == nil || n == v {
			continue
		}
		sum = sum.Add(n.vel)
		count++
	}

	if count == 0 {
		return vec.Zero
	}
	return v.Steer(sum.SetMag(v.params.MaxSpeed))
}

// Cohere arrives at the neighbors' center of mass.
func (v *Vehicle) Cohere(neighbors []*Vehicle) vec.Vec2 {
	var sum vec.Vec2
	count := 0
	for _, n := range neighbors {
		if n == nil || n == v {
			continue
		}
		sum = sum.Add(n.pos)
		count++
	}

	if count == 0 {
		return vec.Zero
	}
	return v.Arrive(sum.Div(float64(count)))
}

// Flock finds v's neighbors in population and blends separation, alignment
// and cohesion by w. The result is clamped to MaxForce.
func (v *Vehicle) Flock(population []*Vehicle, w Weights) vec.Vec2 {
	return v.FlockNeighbors(v.Neighbors(population), w)
}

// FlockNeighbors is Flock for a neighbor list the caller already holds.
func (v *Vehicle) FlockNeighbors(neighbors []*Vehicle, w Weights) vec.Vec2 {
	separation := v.Separate(neighbors).Scale(w.Separation)
	alignment := v.Align(neighbors).Scale(w.Alignment)
	cohesion := v.Cohere(neighbors).Scale(w.Cohesion)

	return separation.Add(alignment).Add(cohesion).Limit(v.params.MaxForce)
}

// fallbackHeading is the repulsion direction for a neighbor sitting exactly
// on top of v: straight ahead, or +X when v is at rest.
func (v *Vehicle) fallbackHeading() vec.Vec2 {
	if v.vel.IsZero() {
		return vec.New(1, 0)
	}
	return v.vel.Unit()
}
