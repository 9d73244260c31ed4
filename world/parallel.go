package world

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/steering"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/vec"
)

// agentSnapshot captures read-only state for the compute phase.
type agentSnapshot struct {
	Entity  ecs.Entity
	ID      uint32
	Role    components.Role
	Goal    components.Goal
	Vehicle *steering.Vehicle
	State   steering.State
}

// intent is the force computed for one agent, applied during commit.
type intent struct {
	Force vec.Vec2
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Candidates []int
	Boids      []*steering.Vehicle
	Predators  []*steering.Vehicle
	Neighbors  []*steering.Vehicle
	Targets    []*steering.Vehicle
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel force computation.
type parallelState struct {
	snapshots  []agentSnapshot
	intents    []intent
	samples    []telemetry.AgentSample
	scratches  []workerScratch
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers, threshold int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, workers)
	for i := range scratches {
		scratches[i].Candidates = make([]int, 0, 64)
		scratches[i].Neighbors = make([]*steering.Vehicle, 0, 64)
	}
	return &parallelState{
		numWorkers: workers,
		threshold:  threshold,
		scratches:  scratches,
		snapshots:  make([]agentSnapshot, 0, 512),
		intents:    make([]intent, 0, 512),
		samples:    make([]telemetry.AgentSample, 0, 512),
	}
}

// resize grows the per-agent output slices to n entries.
func (p *parallelState) resize(n int) {
	if cap(p.intents) < n {
		p.intents = make([]intent, n)
		p.samples = make([]telemetry.AgentSample, n)
	}
	p.intents = p.intents[:n]
	p.samples = p.samples[:n]
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(w *World) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(w, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(w *World, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			w.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// compute fills intents for every snapshot, fanning out to the worker pool
// once the population reaches the threshold.
func (w *World) compute() {
	p := w.parallel
	n := len(p.snapshots)
	p.resize(n)
	if n == 0 {
		return
	}

	if n < p.threshold || p.numWorkers == 1 {
		w.computeChunk(0, n, &p.scratches[0])
		return
	}

	if !p.running {
		p.startWorkers(w)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for i := 0; i < p.numWorkers; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// commit applies every intent in ID order on the calling goroutine and
// records the resulting velocities in the samples.
func (w *World) commit(dt float64) {
	p := w.parallel
	for i := range p.snapshots {
		v := p.snapshots[i].Vehicle
		v.ApplyForce(p.intents[i].Force, dt)
		p.samples[i].Velocity = v.Velocity()
	}
}
