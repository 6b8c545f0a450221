package sim

import (
	"encoding/json"
)

// ProcessSnapshot is the reported state of one process.
type ProcessSnapshot struct {
	ID            ProcessID              `json:"id" yaml:"id"`
	Name          string                 `json:"name" yaml:"name"`
	State         ProcessState           `json:"state" yaml:"state"`
	Priority      int                    `json:"priority" yaml:"priority"`
	ArrivalTick   int64                  `json:"arrival_tick" yaml:"arrival_tick"`
	RemainingWork int64                  `json:"remaining_work" yaml:"remaining_work"`
	Resources     map[ResourceKind]int64 `json:"resources" yaml:"resources"` // held, not requested
}

// ResourceUsage is the reported state of one resource kind.
type ResourceUsage struct {
	Kind        ResourceKind `json:"kind" yaml:"kind"`
	Capacity    int64        `json:"capacity" yaml:"capacity"`
	Used        int64        `json:"used" yaml:"used"`
	Utilization float64      `json:"utilization" yaml:"utilization"`
}

// Snapshot is an immutable point-in-time view of a Kernel.
// Processes are ordered by ID and resources by kind, so two kernels fed the
// same submissions produce byte-identical JSON.
type Snapshot struct {
	Tick      int64             `json:"tick" yaml:"tick"`
	Processes []ProcessSnapshot `json:"processes" yaml:"processes"`
	Resources []ResourceUsage   `json:"resources" yaml:"resources"`
}

func takeSnapshot(clock *Clock, table *ProcessTable, pool *ResourcePool) Snapshot {
	snap := Snapshot{
		Tick:      clock.Now(),
		Processes: make([]ProcessSnapshot, 0, table.Len()),
		Resources: make([]ResourceUsage, 0),
	}
	for _, p := range table.All() {
		snap.Processes = append(snap.Processes, ProcessSnapshot{
			ID:            p.ID,
			Name:          p.Name,
			State:         p.State,
			Priority:      p.Priority,
			ArrivalTick:   p.ArrivalTick,
			RemainingWork: p.RemainingWork,
			Resources:     pool.Held(p.ID),
		})
	}
	for _, kind := range pool.Kinds() {
		snap.Resources = append(snap.Resources, ResourceUsage{
			Kind:        kind,
			Capacity:    pool.Capacity(kind),
			Used:        pool.Used(kind),
			Utilization: pool.Utilization(kind),
		})
	}
	return snap
}

// JSON returns the canonical encoding used for cross-implementation comparison.
func (s Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Process returns the snapshot of process id, if present.
func (s Snapshot) Process(id ProcessID) (ProcessSnapshot, bool) {
	for _, p := range s.Processes {
		if p.ID == id {
			return p, true
		}
	}
	return ProcessSnapshot{}, false
}

// Resource returns the usage of kind, if configured.
func (s Snapshot) Resource(kind ResourceKind) (ResourceUsage, bool) {
	for _, r := range s.Resources {
		if r.Kind == kind {
			return r, true
		}
	}
	return ResourceUsage{}, false
}

// CountByState returns how many processes are in each state.
func (s Snapshot) CountByState() map[ProcessState]int {
	counts := make(map[ProcessState]int)
	for _, p := range s.Processes {
		counts[p.State]++
	}
	return counts
}

// LiveCount returns the number of Ready, Running or Blocked processes.
func (s Snapshot) LiveCount() int {
	n := 0
	for _, p := range s.Processes {
		if p.State.IsLive() {
			n++
		}
	}
	return n
}
