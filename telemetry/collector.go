package telemetry

// Collector accumulates per-tick flock samples within windows of ticks and
// produces WindowStats.
type Collector struct {
	windowDurationTicks int32

	// Current window tracking
	windowStartTick int32
	ticks           int

	// Per-tick sums for the current window
	polarizationSum float64
	neighborsSum    float64
	nearestSum      float64
	nearestTicks    int
	isolatedSum     float64
	forceSum        float64
	lastBoids       int
	lastPredators   int
	lastSpeeds      []float64
	scratch         sampleScratch
}

// NewCollector creates a new stats collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowDurationTicks: int32(windowTicks)}
}

// Record folds one tick's samples into the current window.
// Population counts and the speed distribution reflect the latest call.
func (c *Collector) Record(samples []AgentSample) {
	sum := summarize(samples, &c.scratch)

	c.ticks++
	c.polarizationSum += sum.polarization
	c.neighborsSum += sum.meanNeighbors
	c.isolatedSum += sum.isolated
	c.forceSum += sum.meanForce
	if sum.hasNearest {
		c.nearestSum += sum.meanNearest
		c.nearestTicks++
	}

	c.lastBoids, c.lastPredators = 0, 0
	c.lastSpeeds = c.lastSpeeds[:0]
	for _, s := range samples {
		if s.Predator {
			c.lastPredators++
			continue
		}
		c.lastBoids++
		c.lastSpeeds = append(c.lastSpeeds, s.Velocity.Mag())
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets the accumulators for the next window.
func (c *Collector) Flush(currentTick int32) WindowStats {
	speedMean, p10, p50, p90 := ComputeSpeedStats(c.lastSpeeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Boids:     c.lastBoids,
		Predators: c.lastPredators,

		SpeedMean: speedMean,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,
	}

	if c.ticks > 0 {
		n := float64(c.ticks)
		stats.Polarization = c.polarizationSum / n
		stats.MeanNeighbors = c.neighborsSum / n
		stats.Isolated = c.isolatedSum / n
		stats.MeanForce = c.forceSum / n
	}
	if c.nearestTicks > 0 {
		stats.MeanNearest = c.nearestSum / float64(c.nearestTicks)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.polarizationSum = 0
	c.neighborsSum = 0
	c.nearestSum = 0
	c.nearestTicks = 0
	c.isolatedSum = 0
	c.forceSum = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
