package world

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/steering"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/vec"
)

// ErrUnknownEntity is returned for entities that are not alive in the world.
var ErrUnknownEntity = errors.New("world: unknown entity")

// World holds the simulation state. It is not safe for concurrent use;
// Step parallelizes internally.
type World struct {
	cfg *config.Config
	ecs *ecs.World
	rng *rand.Rand

	agentMapper *ecs.Map3[components.Agent, components.Role, components.Goal]
	agentFilter *ecs.Filter3[components.Agent, components.Role, components.Goal]
	goalMap     *ecs.Map1[components.Goal]

	vehicleOpts []steering.Option
	grid        *Grid
	parallel    *parallelState
	perf        *telemetry.PerfCollector

	// State
	tick      int32
	nextID    uint32
	boids     int
	predators int
}

// New creates a world from cfg and spawns the configured population.
// A nil cfg uses the embedded defaults.
func New(cfg *config.Config) (*World, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	opts, err := cfg.VehicleOptions()
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	w := &World{
		cfg:         cfg,
		ecs:         world,
		rng:         rand.New(rand.NewSource(cfg.Population.Seed)),
		agentMapper: ecs.NewMap3[components.Agent, components.Role, components.Goal](world),
		agentFilter: ecs.NewFilter3[components.Agent, components.Role, components.Goal](world),
		goalMap:     ecs.NewMap1[components.Goal](world),
		vehicleOpts: opts,
		grid:        NewGrid(cfg.World.Width, cfg.World.Height, cfg.Derived.CellSize),
		parallel:    newParallelState(cfg.Parallel.Workers, cfg.Parallel.Threshold),
	}

	if err := w.spawnInitialPopulation(); err != nil {
		return nil, err
	}
	return w, nil
}

// spawnInitialPopulation places boids then predators at random positions
// with random headings and speeds up to their max speed. Boids start with
// the configured goal.
func (w *World) spawnInitialPopulation() error {
	counts := []struct {
		role components.Role
		n    int
	}{
		{components.RoleBoid, w.cfg.Population.Boids},
		{components.RolePredator, w.cfg.Population.Predators},
	}

	goal, err := w.cfg.InitialGoal()
	if err != nil {
		return err
	}

	for _, c := range counts {
		maxSpeed := w.paramsFor(c.role).MaxSpeed
		for i := 0; i < c.n; i++ {
			pos := vec.New(w.rng.Float64()*w.cfg.World.Width, w.rng.Float64()*w.cfg.World.Height)
			heading := w.rng.Float64() * 2 * math.Pi
			speed := w.rng.Float64() * maxSpeed
			vel := vec.New(math.Cos(heading), math.Sin(heading)).Scale(speed)
			e, err := w.Spawn(c.role, pos, vel)
			if err != nil {
				return fmt.Errorf("spawning %s: %w", c.role, err)
			}
			if c.role == components.RoleBoid && goal.Kind != components.GoalNone {
				*w.goalMap.Get(e) = goal
			}
		}
	}
	return nil
}

func (w *World) paramsFor(role components.Role) steering.Params {
	if role == components.RolePredator {
		return w.cfg.Derived.PredatorParams
	}
	return w.cfg.Vehicle
}

// Spawn adds a vehicle with the given role. The velocity is clamped to the
// role's max speed.
func (w *World) Spawn(role components.Role, pos, vel vec.Vec2) (ecs.Entity, error) {
	if role != components.RoleBoid && role != components.RolePredator {
		return ecs.Entity{}, fmt.Errorf("%w: role %s", steering.ErrInvalidParameter, role)
	}

	opts := make([]steering.Option, 0, len(w.vehicleOpts)+2)
	opts = append(opts, w.vehicleOpts...)
	opts = append(opts, steering.WithPosition(pos), steering.WithVelocity(vel))

	v, err := steering.New(w.paramsFor(role), opts...)
	if err != nil {
		return ecs.Entity{}, err
	}

	agent := components.Agent{ID: w.nextID, Vehicle: v}
	goal := components.Goal{}
	w.nextID++

	entity := w.agentMapper.NewEntity(&agent, &role, &goal)
	if role == components.RolePredator {
		w.predators++
	} else {
		w.boids++
	}
	return entity, nil
}

// Remove deletes an entity from the world.
func (w *World) Remove(e ecs.Entity) error {
	if !w.ecs.Alive(e) {
		return ErrUnknownEntity
	}
	_, role, _ := w.agentMapper.Get(e)
	if *role == components.RolePredator {
		w.predators--
	} else {
		w.boids--
	}
	w.ecs.RemoveEntity(e)
	return nil
}

// SetGoal replaces an entity's goal. GoalNone clears it.
func (w *World) SetGoal(e ecs.Entity, goal components.Goal) error {
	if !w.ecs.Alive(e) {
		return ErrUnknownEntity
	}
	*w.goalMap.Get(e) = goal
	return nil
}

// Vehicle returns the vehicle behind an entity.
func (w *World) Vehicle(e ecs.Entity) (*steering.Vehicle, error) {
	if !w.ecs.Alive(e) {
		return nil, ErrUnknownEntity
	}
	agent, _, _ := w.agentMapper.Get(e)
	return agent.Vehicle, nil
}

// Vehicles returns every vehicle sorted by spawn ID.
func (w *World) Vehicles() []*steering.Vehicle {
	w.snapshot()
	out := make([]*steering.Vehicle, len(w.parallel.snapshots))
	for i := range w.parallel.snapshots {
		out[i] = w.parallel.snapshots[i].Vehicle
	}
	return out
}

// Len returns the number of live agents.
func (w *World) Len() int { return w.boids + w.predators }

// Counts returns the number of boids and predators.
func (w *World) Counts() (boids, predators int) { return w.boids, w.predators }

// Tick returns the number of completed steps.
func (w *World) Tick() int32 { return w.tick }

// Config returns the configuration the world was built from.
func (w *World) Config() *config.Config { return w.cfg }

// SetPerf attaches a collector that times the step phases. The caller owns
// StartTick and EndTick so it can time its own phases in the same tick.
func (w *World) SetPerf(p *telemetry.PerfCollector) { w.perf = p }

// Samples returns per-agent samples from the last Step in ID order.
// The slice is reused by the next Step.
func (w *World) Samples() []telemetry.AgentSample {
	return w.parallel.samples
}

// Step advances the simulation by one tick. Every force is computed from
// the same snapshot before any vehicle moves.
func (w *World) Step() {
	w.startPhase(telemetry.PhaseSnapshot)
	w.snapshot()
	w.rebuildGrid()

	w.startPhase(telemetry.PhaseCompute)
	w.compute()

	w.startPhase(telemetry.PhaseCommit)
	w.commit(w.cfg.Physics.DT)

	w.tick++
}

// Close stops the worker pool.
func (w *World) Close() {
	w.parallel.stopWorkers()
}

func (w *World) startPhase(phase string) {
	if w.perf != nil {
		w.perf.StartPhase(phase)
	}
}

// snapshot collects every agent sorted by ID.
func (w *World) snapshot() {
	p := w.parallel
	p.snapshots = p.snapshots[:0]

	query := w.agentFilter.Query()
	for query.Next() {
		agent, role, goal := query.Get()
		p.snapshots = append(p.snapshots, agentSnapshot{
			Entity:  query.Entity(),
			ID:      agent.ID,
			Role:    *role,
			Goal:    *goal,
			Vehicle: agent.Vehicle,
			State:   agent.Vehicle.Snapshot(),
		})
	}

	// Archetype order shifts on removal; ID order does not
	slices.SortFunc(p.snapshots, func(a, b agentSnapshot) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

func (w *World) rebuildGrid() {
	w.grid.Clear()
	for i := range w.parallel.snapshots {
		w.grid.Insert(i, w.parallel.snapshots[i].State.Position)
	}
}
