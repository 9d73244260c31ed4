package world

import (
	"math"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/steering"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/vec"
)

// computeChunk computes the steering force for snapshots [i0, i1).
// It reads only the snapshot slice and the grid, so chunks run concurrently.
func (w *World) computeChunk(i0, i1 int, scratch *workerScratch) {
	snaps := w.parallel.snapshots
	cfg := w.cfg

	for i := i0; i < i1; i++ {
		snap := &snaps[i]
		v := snap.Vehicle
		params := v.Params()

		// Split grid candidates by role, preserving snapshot order
		scratch.Candidates = w.grid.CandidatesInto(scratch.Candidates[:0], snap.State.Position, params.Perception)
		scratch.Boids = scratch.Boids[:0]
		scratch.Predators = scratch.Predators[:0]
		for _, j := range scratch.Candidates {
			other := &snaps[j]
			if other.Role == components.RolePredator {
				scratch.Predators = append(scratch.Predators, other.Vehicle)
			} else {
				scratch.Boids = append(scratch.Boids, other.Vehicle)
			}
		}

		var force vec.Vec2
		switch snap.Role {
		case components.RolePredator:
			// Keep predators from stacking on the same prey
			scratch.Neighbors = v.NeighborsInto(scratch.Neighbors[:0], scratch.Predators)
			force = v.Separate(scratch.Neighbors)

			scratch.Targets = v.NeighborsInto(scratch.Targets[:0], scratch.Boids)
			if prey := nearest(v, scratch.Targets); prey != nil {
				force = force.Add(v.Pursue(prey).Scale(cfg.Predator.PursueWeight))
			}
		default:
			scratch.Neighbors = v.NeighborsInto(scratch.Neighbors[:0], scratch.Boids)
			force = v.FlockNeighbors(scratch.Neighbors, cfg.Flock)

			scratch.Targets = v.NeighborsInto(scratch.Targets[:0], scratch.Predators)
			if threat := nearest(v, scratch.Targets); threat != nil {
				force = force.Add(v.Evade(threat).Scale(cfg.Prey.EvadeWeight))
			}
		}

		force = force.Add(snap.Goal.Force(v))

		if !w.inBounds(snap.State.Position) {
			force = force.Add(v.Seek(cfg.Derived.Center))
		}

		force = force.Limit(params.MaxForce)
		w.parallel.intents[i].Force = force

		nearestDist := -1.0
		if n := nearest(v, scratch.Neighbors); n != nil {
			nearestDist = n.Position().Dist(snap.State.Position)
		}
		w.parallel.samples[i] = telemetry.AgentSample{
			Predator:    snap.Role == components.RolePredator,
			Velocity:    snap.State.Velocity,
			Neighbors:   len(scratch.Neighbors),
			NearestDist: nearestDist,
			Force:       force.Mag(),
		}
	}
}

// inBounds reports whether p lies inside the world shrunk by the margin.
func (w *World) inBounds(p vec.Vec2) bool {
	m := w.cfg.World.Margin
	return p.X >= m && p.X <= w.cfg.World.Width-m &&
		p.Y >= m && p.Y <= w.cfg.World.Height-m
}

// nearest returns the vehicle in others closest to v, or nil if others is
// empty. Ties go to the earlier entry.
func nearest(v *steering.Vehicle, others []*steering.Vehicle) *steering.Vehicle {
	var best *steering.Vehicle
	bestSq := math.Inf(1)
	pos := v.Position()
	for _, o := range others {
		if d := o.Position().SqrDist(pos); d < bestSq {
			best, bestSq = o, d
		}
	}
	return best
}
