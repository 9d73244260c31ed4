package steering

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/flock/vec"
)

func at(x, y float64, opts ...Option) *Vehicle {
	opts = append([]Option{WithPosition(vec.New(x, y))}, opts...)
	return MustNew(scenarioParams(), opts...)
}

func TestNeighborsExcludesSelfAndFar(t *testing.T) {
	p := scenarioParams()
	p.Perception = 10
	self := MustNew(p)

	near := at(3, 4)
	far := at(100, 0)
	behind := at(-5, -5)
	// On the radius, and inside the bounding square but outside the circle
	edge := at(10, 0)
	corner := at(9, 9)

	got := self.Neighbors([]*Vehicle{near, self, edge, corner, far, behind, nil})

	want := []*Vehicle{near, behind}
	if len(got) != len(want) {
		t.Fatalf("Neighbors returned %d vehicles, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("neighbor[%d] = %v, want %v", i, got[i].Position(), want[i].Position())
		}
	}
}

func TestNeighborsPropertyRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	pop := make([]*Vehicle, 200)
	for i := range pop {
		pop[i] = at(rng.Float64()*200, rng.Float64()*200)
	}

	for _, v := range pop {
		rSq := v.Params().Perception * v.Params().Perception
		got := v.Neighbors(pop)

		inGot := make(map[*Vehicle]bool, len(got))
		last := -1
		for _, n := range got {
			if n == v {
				t.Fatal("Neighbors included the querying vehicle")
			}
			if n.Position().SqrDist(v.Position()) >= rSq {
				t.Fatalf("neighbor at squared distance %v >= %v", n.Position().SqrDist(v.Position()), rSq)
			}
			idx := indexOf(pop, n)
			if idx <= last {
				t.Fatal("Neighbors did not preserve input order")
			}
			last = idx
			inGot[n] = true
		}

		for _, c := range pop {
			if c != v && c.Position().SqrDist(v.Position()) < rSq && !inGot[c] {
				t.Fatalf("visible candidate at %v missing", c.Position())
			}
		}
	}
}

func indexOf(pop []*Vehicle, v *Vehicle) int {
	for i, p := range pop {
		if p == v {
			return i
		}
	}
	return -1
}

func TestNeighborsIntoReusesBuffer(t *testing.T) {
	self := at(0, 0)
	a, b := at(1, 0), at(2, 0)
	buf := make([]*Vehicle, 0, 8)

	buf = self.NeighborsInto(buf[:0], []*Vehicle{a, b})
	buf = self.NeighborsInto(buf[:0], []*Vehicle{b})
	if len(buf) != 1 || buf[0] != b {
		t.Errorf("NeighborsInto = %d items, want only b", len(buf))
	}
}

func TestGroupBehaviorsEmptyNeighbors(t *testing.T) {
	v := at(0, 0, WithVelocity(vec.New(3, 1)))
	for name, f := range map[string]func([]*Vehicle) vec.Vec2{
		"separate": v.Separate,
		"align":    v.Align,
		"cohere":   v.Cohere,
	} {
		if got := f(nil); got != vec.Zero {
			t.Errorf("%s(nil) = %v, want exact zero", name, got)
		}
		if got := f([]*Vehicle{}); got != vec.Zero {
			t.Errorf("%s(empty) = %v, want exact zero", name, got)
		}
	}
	if got := v.Flock(nil, DefaultWeights()); got != vec.Zero {
		t.Errorf("Flock(nil) = %v, want zero", got)
	}
}

func TestSeparateScenario(t *testing.T) {
	v := at(0, 0, WithSeparationPolicy(FixedLeeway{}))
	other := at(3, 0)

	got := v.Separate([]*Vehicle{other})
	if got.X >= 0 || got.Y != 0 {
		t.Errorf("Separate = %v, want a force along -x", got)
	}
	if !got.ApproxEqual(vec.New(-5, 0), tol) {
		t.Errorf("Separate = %v, want (-5, 0)", got)
	}
}

func TestSeparateIgnoresOutsideLeeway(t *testing.T) {
	v := at(0, 0, WithSeparationPolicy(FixedLeeway{}))
	if got := v.Separate([]*Vehicle{at(6, 0)}); got != vec.Zero {
		t.Errorf("Separate with neighbor beyond leeway = %v, want zero", got)
	}
}

func TestSeparateWeightsCloserNeighbors(t *testing.T) {
	p := scenarioParams()
	p.Leeway = 20
	v := MustNew(p, WithSeparationPolicy(FixedLeeway{}))

	// Close neighbor on +x, distant neighbor on +y: net push is mostly -x.
	got := v.Separate([]*Vehicle{at(1, 0), at(0, 10)})
	if !(got.X < 0 && got.Y < 0 && -got.X > -got.Y) {
		t.Errorf("Separate = %v, want dominated by the closer neighbor", got)
	}
}

func TestSeparateSpeedPolicy(t *testing.T) {
	neighbor := at(3, 0)

	resting := at(0, 0)
	if got := resting.Separate([]*Vehicle{neighbor}); got != vec.Zero {
		t.Errorf("resting vehicle should have no comfort zone, got %v", got)
	}

	// |v|^2/maxForce = 100/5 = 20 > 3
	moving := at(0, 0, WithVelocity(vec.New(0, 10)))
	if got := moving.Separate([]*Vehicle{neighbor}); got.X >= 0 {
		t.Errorf("moving vehicle should push away from neighbor, got %v", got)
	}
}

func TestSeparateCoincident(t *testing.T) {
	v := at(5, 5, WithSeparationPolicy(FixedLeeway{}))
	twin := at(5, 5)

	got := v.Separate([]*Vehicle{twin})
	if !got.IsFinite() {
		t.Fatalf("Separate with coincident neighbor = %v", got)
	}
	if !got.ApproxEqual(vec.New(5, 0), tol) {
		t.Errorf("Separate at rest with coincident neighbor = %v, want +x fallback (5, 0)", got)
	}

	heading := at(5, 5, WithSeparationPolicy(FixedLeeway{}), WithVelocity(vec.New(0, -2)))
	got = heading.Separate([]*Vehicle{twin})
	if !got.IsFinite() || got.Y >= 0 {
		t.Errorf("Separate with coincident neighbor while moving = %v, want along heading", got)
	}
}

func TestAlign(t *testing.T) {
	v := at(0, 0)
	got := v.Align([]*Vehicle{
		at(1, 0, WithVelocity(vec.New(0, 2))),
		at(0, 1, WithVelocity(vec.New(0, 6))),
	})
	if !got.ApproxEqual(vec.New(0, 5), tol) {
		t.Errorf("Align = %v, want (0, 5)", got)
	}
}

func TestCohere(t *testing.T) {
	v := at(0, 0)
	neighbors := []*Vehicle{at(10, 10), at(30, -10)}
	got := v.Cohere(neighbors)
	want := v.Arrive(vec.New(20, 0))
	if !got.ApproxEqual(want, tol) {
		t.Errorf("Cohere = %v, want Arrive(center) = %v", got, want)
	}
}

func TestSeparateThresholdFunc(t *testing.T) {
	var seen *Vehicle
	radius := 2.0
	v := at(0, 0, WithSeparationPolicy(ThresholdFunc(func(self *Vehicle) float64 {
		seen = self
		return radius
	})))
	other := at(3, 0)

	if got := v.Separate([]*Vehicle{other}); got != vec.Zero {
		t.Errorf("Separate with a 2 radius = %v, want zero", got)
	}
	if seen != v {
		t.Error("threshold func did not receive the separating vehicle")
	}

	radius = 10
	if got := v.Separate([]*Vehicle{other}); got.X >= 0 || got.Y != 0 {
		t.Errorf("Separate with a 10 radius = %v, want a force along -x", got)
	}
}

func TestGroupBehaviorsSkipNilAndSelf(t *testing.T) {
	v := at(0, 0, WithVelocity(vec.New(3, 1)), WithSeparationPolicy(FixedLeeway{}))
	other := at(3, 4, WithVelocity(vec.New(0, 2)))

	for name, f := range map[string]func([]*Vehicle) vec.Vec2{
		"separate": v.Separate,
		"align":    v.Align,
		"cohere":   v.Cohere,
	} {
		if got := f([]*Vehicle{nil, v}); got != vec.Zero {
			t.Errorf("%s(nil, self) = %v, want exact zero", name, got)
		}
		want := f([]*Vehicle{other})
		if got := f([]*Vehicle{nil, other, v}); !got.ApproxEqual(want, tol) {
			t.Errorf("%s with nil and self = %v, want %v", name, got, want)
		}
	}
}

func TestFlockBlend(t *testing.T) {
	v := at(0, 0, WithVelocity(vec.New(1, 0)), WithSeparationPolicy(FixedLeeway{}))
	pop := []*Vehicle{
		v,
		at(2, 0, WithVelocity(vec.New(0, 3))),
		at(-20, 5, WithVelocity(vec.New(1, 1))),
		at(500, 500),
	}

	neighbors := v.Neighbors(pop)
	if len(neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(neighbors))
	}

	w := Weights{Separation: 2, Alignment: 0.5, Cohesion: 0.25}
	want := v.Separate(neighbors).Scale(2).
		Add(v.Align(neighbors).Scale(0.5)).
		Add(v.Cohere(neighbors).Scale(0.25)).
		Limit(v.Params().MaxForce)

	if got := v.Flock(pop, w); !got.ApproxEqual(want, tol) {
		t.Errorf("Flock = %v, want %v", got, want)
	}
	if got := v.Flock(pop, w); got.Mag() > v.Params().MaxForce+tol {
		t.Errorf("|Flock| = %v exceeds max force", got.Mag())
	}

	zero := Weights{}
	if got := v.Flock(pop, zero); got != vec.Zero {
		t.Errorf("Flock with zero weights = %v, want zero", got)
	}
}

func TestWeightsValidate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Errorf("default weights invalid: %v", err)
	}
	if err := (Weights{Separation: -1}).Validate(); err == nil {
		t.Error("negative weight accepted")
	}
}

func TestParsePolicies(t *testing.T) {
	if p, err := ParseArrivePolicy(""); err != nil || p != (FixedSlowRadius{}) {
		t.Errorf("ParseArrivePolicy(\"\") = %v, %v", p, err)
	}
	if p, err := ParseArrivePolicy(ArriveForceRatio); err != nil || p != (ForceRatioSlowRadius{}) {
		t.Errorf("ParseArrivePolicy(force_ratio) = %v, %v", p, err)
	}
	if _, err := ParseArrivePolicy("bogus"); err == nil {
		t.Error("ParseArrivePolicy accepted an unknown name")
	}
	if p, err := ParseSeparationPolicy(""); err != nil || p != (SpeedLeeway{}) {
		t.Errorf("ParseSeparationPolicy(\"\") = %v, %v", p, err)
	}
	if p, err := ParseSeparationPolicy(SeparationLeeway); err != nil || p != (FixedLeeway{}) {
		t.Errorf("ParseSeparationPolicy(leeway) = %v, %v", p, err)
	}
	if _, err := ParseSeparationPolicy("bogus"); err == nil {
		t.Error("ParseSeparationPolicy accepted an unknown name")
	}
}

func BenchmarkNeighbors(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	pop := make([]*Vehicle, 500)
	for i := range pop {
		pop[i] = at(rng.Float64()*1000, rng.Float64()*1000)
	}
	buf := make([]*Vehicle, 0, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = pop[i%len(pop)].NeighborsInto(buf[:0], pop)
	}
}
