package workload

import (
	"fmt"
	"math/rand"
)

// IntRange is an inclusive integer range sampled uniformly.
type IntRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// Sample returns a uniform value in [Min, Max].
func (r IntRange) Sample(rng *rand.Rand) int64 {
	if r.Min >= r.Max {
		return r.Min
	}
	return r.Min + rng.Int63n(r.Max-r.Min+1)
}

// Validate checks that the range is well formed and starts at or above floor.
func (r IntRange) Validate(name string, floor int64) error {
	if r.Min < floor {
		return fmt.Errorf("%s.min must be >= %d, got %d", name, floor, r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%s.max %d below min %d", name, r.Max, r.Min)
	}
	return nil
}
