// Package vec provides the immutable 2D vector value used by the steering engine.
package vec

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec2 is a 2D vector. Methods never mutate the receiver.
type Vec2 struct {
	X, Y float64
}

// Zero is the zero vector.
var Zero = Vec2{}

// New returns the vector (x, y).
func New(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// FromR2 converts a gonum r2.Vec.
func FromR2(v r2.Vec) Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// R2 converts to a gonum r2.Vec.
func (v Vec2) R2() r2.Vec {
	return r2.Vec{X: v.X, Y: v.Y}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return FromR2(r2.Add(v.R2(), o.R2()))
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return FromR2(r2.Sub(v.R2(), o.R2()))
}

// Scale returns v * f.
func (v Vec2) Scale(f float64) Vec2 {
	return FromR2(r2.Scale(f, v.R2()))
}

// Mul is an alias for Scale.
func (v Vec2) Mul(f float64) Vec2 {
	return v.Scale(f)
}

// Div returns v / f. Division by zero yields the zero vector.
func (v Vec2) Div(f float64) Vec2 {
	if f == 0 {
		return Zero
	}
	return v.Scale(1 / f)
}

// Neg returns -v.
func (v Vec2) Neg() Vec2 {
	return v.Scale(-1)
}

// Mag returns the length of v.
func (v Vec2) Mag() float64 {
	return r2.Norm(v.R2())
}

// SqrMag returns the squared length of v.
func (v Vec2) SqrMag() float64 {
	return r2.Norm2(v.R2())
}

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 {
	return v.Sub(o).Mag()
}

// SqrDist returns the squared distance between v and o.
func (v Vec2) SqrDist(o Vec2) float64 {
	return v.Sub(o).SqrMag()
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 {
	return r2.Dot(v.R2(), o.R2())
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Unit returns v scaled to length 1, or the zero vector if v has no direction.
func (v Vec2) Unit() Vec2 {
	if v.IsZero() {
		return Zero
	}
	return FromR2(r2.Unit(v.R2()))
}

// SetMag returns a vector with v's direction and length m.
// The zero vector has no direction, so it is returned unchanged.
func (v Vec2) SetMag(m float64) Vec2 {
	if v.IsZero() {
		return Zero
	}
	return v.Unit().Scale(m)
}

// Limit clamps the length of v to max. Shorter vectors are returned as-is.
func (v Vec2) Limit(max float64) Vec2 {
	if max <= 0 {
		return Zero
	}
	if v.SqrMag() <= max*max {
		return v
	}
	return v.SetMag(max)
}

// ApproxEqual reports whether v and o differ by at most tol on each axis.
func (v Vec2) ApproxEqual(o Vec2, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}
