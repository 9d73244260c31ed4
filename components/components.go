// Package components defines ECS components for the simulation.
package components

import (
	"github.com/pthm-cable/flock/steering"
	"github.com/pthm-cable/flock/vec"
)

// Role determines which behavior drives an agent.
type Role uint8

const (
	RoleBoid     Role = iota // Flocks and evades predators
	RolePredator             // Pursues the nearest visible boid
)

// GoalKind selects an optional per-agent goal behavior.
type GoalKind uint8

const (
	GoalNone   GoalKind = iota
	GoalSeek            // Seek Target
	GoalFlee            // Flee Target
	GoalArrive          // Arrive at Target
	GoalBrake           // Come to a stop
)

// Agent ties an entity to its vehicle.
// The vehicle is owned by the world; only the commit phase calls ApplyForce.
type Agent struct {
	ID      uint32
	Vehicle *steering.Vehicle
}

// Goal is blended on top of the role behavior with the given weight.
type Goal struct {
	Kind   GoalKind
	Target vec.Vec2
	Weight float64
}

// Force returns the goal's weighted steering force for v.
func (g Goal) Force(v *steering.Vehicle) vec.Vec2 {
	var f vec.Vec2
	switch g.Kind {
	case GoalSeek:
		f = v.Seek(g.Target)
	case GoalFlee:
		f = v.Flee(g.Target)
	case GoalArrive:
		f = v.Arrive(g.Target)
	case GoalBrake:
		f = v.Brake()
	default:
		return vec.Zero
	}
	return f.Scale(g.Weight)
}
