package workload

import (
	"fmt"
	"sort"

	"github.com/bioos/bioos-sim/sim"
)

// GeneratorConfig describes a synthetic workload. Every attribute is drawn
// uniformly from its range.
type GeneratorConfig struct {
	Count      int                           `yaml:"count"`
	ArrivalMax int64                         `yaml:"arrival_max"` // arrivals drawn from [0, ArrivalMax]
	Priority   IntRange                      `yaml:"priority"`
	Work       IntRange                      `yaml:"work"`
	Resources  map[sim.ResourceKind]IntRange `yaml:"resources"`
	// BlockFraction is the share of processes that yield periodically.
	BlockFraction float64  `yaml:"block_fraction"`
	BlockEvery    IntRange `yaml:"block_every"`
	BlockTicks    IntRange `yaml:"block_ticks"`
}

// Validate checks ranges and counts.
func (g GeneratorConfig) Validate() error {
	if g.Count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", g.Count)
	}
	if g.ArrivalMax < 0 {
		return fmt.Errorf("arrival_max must be non-negative, got %d", g.ArrivalMax)
	}
	if err := g.Priority.Validate("priority", 0); err != nil {
		return err
	}
	if err := g.Work.Validate("work", 1); err != nil {
		return err
	}
	for kind, r := range g.Resources {
		if err := r.Validate(fmt.Sprintf("resources[%s]", kind), 0); err != nil {
			return err
		}
	}
	if g.BlockFraction < 0 || g.BlockFraction > 1 {
		return fmt.Errorf("block_fraction must be in [0, 1], got %f", g.BlockFraction)
	}
	if g.BlockFraction > 0 {
		if err := g.BlockEvery.Validate("block_every", 1); err != nil {
			return err
		}
		if err := g.BlockTicks.Validate("block_ticks", 0); err != nil {
			return err
		}
	}
	return nil
}

// Generate produces cfg.Count entries named gen-0, gen-1, ...
// Deterministic given the same config and RNG seed. Resource kinds are
// sampled in lexicographic order so map iteration never affects results.
func Generate(cfg GeneratorConfig, rng *PartitionedRNG) []Entry {
	procRNG := rng.ForSubsystem(SubsystemProcesses)
	arrivalRNG := rng.ForSubsystem(SubsystemArrivals)

	kinds := make([]sim.ResourceKind, 0, len(cfg.Resources))
	for k := range cfg.Resources {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	entries := make([]Entry, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		spec := sim.ProcessSpec{
			Name:      fmt.Sprintf("gen-%d", i),
			Priority:  int(cfg.Priority.Sample(procRNG)),
			Work:      cfg.Work.Sample(procRNG),
			Resources: make(map[sim.ResourceKind]int64, len(kinds)),
		}
		for _, k := range kinds {
			spec.Resources[k] = cfg.Resources[k].Sample(procRNG)
		}
		// always draw, so BlockFraction changes never shift later samples
		blocks := procRNG.Float64() < cfg.BlockFraction
		if blocks {
			spec.BlockEvery = cfg.BlockEvery.Sample(procRNG)
			spec.BlockTicks = cfg.BlockTicks.Sample(procRNG)
		}
		at := IntRange{Min: 0, Max: cfg.ArrivalMax}.Sample(arrivalRNG)
		entries = append(entries, Entry{At: at, ProcessSpec: spec})
	}
	return entries
}

// DefaultGeneratorConfig is the synthetic workload used when no workload file
// is given. Priorities span [minPriority, maxPriority], which callers take
// from the kernel so that no generated process is rejected. Memory requests
// sit around the classic 100-unit per-organism footprint.
func DefaultGeneratorConfig(count, minPriority, maxPriority int) GeneratorConfig {
	return GeneratorConfig{
		Count:      count,
		ArrivalMax: int64(count) * 2,
		Priority:   IntRange{Min: int64(minPriority), Max: int64(maxPriority)},
		Work:       IntRange{Min: 1, Max: 20},
		Resources: map[sim.ResourceKind]IntRange{
			"memory": {Min: 50, Max: 500},
		},
		BlockFraction: 0.2,
		BlockEvery:    IntRange{Min: 1, Max: 5},
		BlockTicks:    IntRange{Min: 1, Max: 3},
	}
}
