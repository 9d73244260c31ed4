package steering

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/flock/vec"
)

const tol = 1e-9

// scenarioParams is the reference tuning: maxSpeed 20, maxForce 5, mass 1.
func scenarioParams() Params {
	return Params{MaxSpeed: 20, MaxForce: 5, Mass: 1, Perception: 50, Leeway: 5}
}

func randVec(rng *rand.Rand, scale float64) vec.Vec2 {
	return vec.New((rng.Float64()*2-1)*scale, (rng.Float64()*2-1)*scale)
}

func TestNewRejectsInvalidParams(t *testing.T) {
	base := scenarioParams()
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero mass", func(p *Params) { p.Mass = 0 }},
		{"negative mass", func(p *Params) { p.Mass = -1 }},
		{"zero max speed", func(p *Params) { p.MaxSpeed = 0 }},
		{"zero max force", func(p *Params) { p.MaxForce = 0 }},
		{"negative perception", func(p *Params) { p.Perception = -0.1 }},
		{"negative leeway", func(p *Params) { p.Leeway = -3 }},
		{"NaN mass", func(p *Params) { p.Mass = math.NaN() }},
		{"infinite speed", func(p *Params) { p.MaxSpeed = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			v, err := New(p)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("New() error = %v, want ErrInvalidParameter", err)
			}
			if v != nil {
				t.Errorf("New() returned a vehicle alongside an error")
			}
		})
	}
}

func TestNewAcceptsBoundaryValues(t *testing.T) {
	p := scenarioParams()
	p.Perception = 0
	p.Leeway = 0
	if _, err := New(p); err != nil {
		t.Errorf("New() with zero perception and leeway: %v", err)
	}
}

func TestNewDefaultsAndOptions(t *testing.T) {
	v := MustNew(scenarioParams())
	if v.Position() != vec.Zero || v.Velocity() != vec.Zero {
		t.Errorf("default state = %v %v, want zero", v.Position(), v.Velocity())
	}

	v = MustNew(scenarioParams(), WithPosition(vec.New(1, 2)), WithVelocity(vec.New(100, 0)))
	if v.Position() != vec.New(1, 2) {
		t.Errorf("Position = %v, want (1, 2)", v.Position())
	}
	if got := v.Velocity().Mag(); math.Abs(got-20) > tol {
		t.Errorf("initial velocity not clamped to max speed: |v| = %v", got)
	}
}

func TestApplyForceScenario(t *testing.T) {
	v := MustNew(scenarioParams())
	dv := v.ApplyForce(vec.New(5, 0), 1)

	if !v.Velocity().ApproxEqual(vec.New(5, 0), tol) {
		t.Errorf("velocity = %v, want (5, 0)", v.Velocity())
	}
	if !v.Position().ApproxEqual(vec.New(5, 0), tol) {
		t.Errorf("position = %v, want (5, 0)", v.Position())
	}
	if !dv.ApproxEqual(vec.New(5, 0), tol) {
		t.Errorf("delta = %v, want (5, 0)", dv)
	}
}

func TestApplyForceDefaultDT(t *testing.T) {
	want := MustNew(scenarioParams())
	want.ApplyForce(vec.New(3, 4), 1)

	for _, dt := range []float64{0, -2, math.NaN(), math.Inf(1), math.Inf(-1)} {
		v := MustNew(scenarioParams())
		v.ApplyForce(vec.New(3, 4), dt)
		if v.Snapshot() != want.Snapshot() {
			t.Errorf("dt=%v state %v differs from dt=1 state %v", dt, v.Snapshot(), want.Snapshot())
		}
		if !v.Position().IsFinite() {
			t.Errorf("dt=%v position %v is not finite", dt, v.Position())
		}
	}
}

func TestApplyForceScalesByMassAndDT(t *testing.T) {
	p := scenarioParams()
	p.Mass = 2
	v := MustNew(p)
	v.ApplyForce(vec.New(4, 0), 0.5)

	if !v.Velocity().ApproxEqual(vec.New(2, 0), tol) {
		t.Errorf("velocity = %v, want (2, 0)", v.Velocity())
	}
	if !v.Position().ApproxEqual(vec.New(1, 0), tol) {
		t.Errorf("position = %v, want (1, 0)", v.Position())
	}
}

func TestApplyForceClampsForce(t *testing.T) {
	v := MustNew(scenarioParams())
	dv := v.ApplyForce(vec.New(0, 100), 1)
	if !dv.ApproxEqual(vec.New(0, 5), tol) {
		t.Errorf("delta = %v, want force clamped to (0, 5)", dv)
	}
}

func TestApplyForceIgnoresNonFinite(t *testing.T) {
	v := MustNew(scenarioParams(), WithVelocity(vec.New(1, 0)))
	v.ApplyForce(vec.New(math.NaN(), 0), 1)
	if !v.Velocity().IsFinite() || !v.Position().IsFinite() {
		t.Errorf("state became non-finite: %v", v.Snapshot())
	}
}

func TestApplyForceNeverExceedsMaxSpeed(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	v := MustNew(scenarioParams())

	for i := 0; i < 1000; i++ {
		v.ApplyForce(randVec(rng, 50), rng.Float64()*3)
		if speed := v.Velocity().Mag(); speed > v.Params().MaxSpeed+tol {
			t.Fatalf("step %d: |velocity| = %v exceeds max speed %v", i, speed, v.Params().MaxSpeed)
		}
	}
}

func TestSteerBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	v := MustNew(scenarioParams(), WithVelocity(vec.New(-10, 3)))

	for i := 0; i < 1000; i++ {
		f := v.Steer(randVec(rng, 500))
		if f.Mag() > v.Params().MaxForce+tol {
			t.Fatalf("|steer| = %v exceeds max force", f.Mag())
		}
	}
}

func TestSteerSubtractsVelocity(t *testing.T) {
	v := MustNew(scenarioParams(), WithVelocity(vec.New(1, 0)))
	got := v.Steer(vec.New(3, 0))
	if !got.ApproxEqual(vec.New(2, 0), tol) {
		t.Errorf("Steer = %v, want (2, 0)", got)
	}
}
