package sim

// Clock is the discrete tick source of a simulation run.
// All ordering in the kernel derives from it.
type Clock struct {
	tick     int64
	timeStep float64 // simulated seconds per tick, for reporting only
}

// NewClock creates a clock at tick 0.
func NewClock(timeStep float64) *Clock {
	return &Clock{timeStep: timeStep}
}

// Now returns the current tick.
func (c *Clock) Now() int64 { return c.tick }

// Advance moves the clock forward by one tick.
func (c *Clock) Advance() { c.tick++ }

// Elapsed returns simulated seconds since tick 0.
func (c *Clock) Elapsed() float64 { return float64(c.tick) * c.timeStep }
