package sim

import (
	"fmt"
	"sort"
)

// Policy orders the Ready candidates before the scheduler walks them.
// Implementations sort the slice in-place with sort.SliceStable and MUST
// produce a total order, ending on ID, so that runs are reproducible.
type Policy interface {
	Order(procs []Process, tick int64)
}

// PriorityPolicy sorts by priority (descending), then by arrival tick
// (ascending), then by ID (ascending). This is the default.
// A process whose request can never be granted stays Ready indefinitely;
// lower-priority processes still run because denied candidates are skipped.
type PriorityPolicy struct{}

func (p *PriorityPolicy) Order(procs []Process, _ int64) {
	sort.SliceStable(procs, func(i, j int) bool {
		if procs[i].Priority != procs[j].Priority {
			return procs[i].Priority > procs[j].Priority
		}
		if procs[i].ArrivalTick != procs[j].ArrivalTick {
			return procs[i].ArrivalTick < procs[j].ArrivalTick
		}
		return procs[i].ID < procs[j].ID
	})
}

// FCFSPolicy sorts by arrival tick, then by ID. Priority is ignored.
type FCFSPolicy struct{}

func (f *FCFSPolicy) Order(procs []Process, _ int64) {
	sort.SliceStable(procs, func(i, j int) bool {
		if procs[i].ArrivalTick != procs[j].ArrivalTick {
			return procs[i].ArrivalTick < procs[j].ArrivalTick
		}
		return procs[i].ID < procs[j].ID
	})
}

// RoundRobinPolicy favours the process that ran least recently.
// Never-run processes come first, then ascending last-run tick, arrival tick, ID.
type RoundRobinPolicy struct{}

func (r *RoundRobinPolicy) Order(procs []Process, _ int64) {
	sort.SliceStable(procs, func(i, j int) bool {
		if procs[i].LastRunTick != procs[j].LastRunTick {
			return procs[i].LastRunTick < procs[j].LastRunTick
		}
		if procs[i].ArrivalTick != procs[j].ArrivalTick {
			return procs[i].ArrivalTick < procs[j].ArrivalTick
		}
		return procs[i].ID < procs[j].ID
	})
}

// ShortestRemainingPolicy sorts by remaining work (ascending), then by
// arrival tick, then by ID.
// Warning: long processes starve under a sustained stream of short ones.
type ShortestRemainingPolicy struct{}

func (s *ShortestRemainingPolicy) Order(procs []Process, _ int64) {
	sort.SliceStable(procs, func(i, j int) bool {
		if procs[i].RemainingWork != procs[j].RemainingWork {
			return procs[i].RemainingWork < procs[j].RemainingWork
		}
		if procs[i].ArrivalTick != procs[j].ArrivalTick {
			return procs[i].ArrivalTick < procs[j].ArrivalTick
		}
		return procs[i].ID < procs[j].ID
	})
}

// ValidPolicies is the set of recognized policy names.
// Shared by KernelConfig.Validate() and NewPolicy().
var ValidPolicies = map[string]bool{"": true, "priority": true, "fcfs": true, "round-robin": true, "shortest-remaining": true}

// IsValidPolicy returns true if name is a recognized policy.
func IsValidPolicy(name string) bool {
	return ValidPolicies[name]
}

// PolicyNames returns the non-empty policy names, sorted.
func PolicyNames() []string {
	names := make([]string, 0, len(ValidPolicies))
	for n := range ValidPolicies {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// NewPolicy creates a Policy by name.
// Empty string defaults to PriorityPolicy. Panics on unrecognized names.
func NewPolicy(name string) Policy {
	if !IsValidPolicy(name) {
		panic(fmt.Sprintf("unknown policy %q", name))
	}
	switch name {
	case "", "priority":
		return &PriorityPolicy{}
	case "fcfs":
		return &FCFSPolicy{}
	case "round-robin":
		return &RoundRobinPolicy{}
	case "shortest-remaining":
		return &ShortestRemainingPolicy{}
	default:
		panic(fmt.Sprintf("unhandled policy %q", name))
	}
}
