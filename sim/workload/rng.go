package workload

import (
	"hash/fnv"
	"math/rand"
)

const (
	// SubsystemProcesses drives per-process attribute sampling and is
	// seeded with the workload seed itself.
	SubsystemProcesses = "processes"

	// SubsystemArrivals drives arrival tick sampling.
	SubsystemArrivals = "arrivals"
)

// PartitionedRNG hands out one independent *rand.Rand per subsystem of a
// workload seed. SubsystemProcesses gets the seed as is; any other name gets
// seed ^ fnv1a64(name). Drawing more from one subsystem never shifts another.
// It is owned by a single goroutine.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derived := p.seed
	if name != SubsystemProcesses {
		derived = p.seed ^ fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(derived))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the seed used to create this PartitionedRNG.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
