// Defines the Process record and its lifecycle state machine.
// Tracks priority, arrival tick, remaining work and yield bookkeeping.

package sim

import (
	"fmt"
	"sort"
)

// ProcessID uniquely identifies a process within one Kernel. IDs start at 1
// and are never reused.
type ProcessID int64

// ResourceKind names a category of finite simulated resource.
type ResourceKind string

// ProcessState represents the lifecycle state of a process.
type ProcessState string

const (
	StateCreated    ProcessState = "created"
	StateReady      ProcessState = "ready"
	StateRunning    ProcessState = "running"
	StateBlocked    ProcessState = "blocked"
	StateTerminated ProcessState = "terminated"
)

// legalTransitions is the complete edge set of the process state machine.
// Any edge not listed is illegal.
var legalTransitions = map[ProcessState]map[ProcessState]bool{
	StateCreated: {StateReady: true},
	StateReady:   {StateRunning: true, StateTerminated: true},
	StateRunning: {StateBlocked: true, StateReady: true, StateTerminated: true},
	StateBlocked: {StateReady: true, StateTerminated: true},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to ProcessState) bool {
	return legalTransitions[from][to]
}

// IsLive reports whether a process in this state still needs scheduling.
func (s ProcessState) IsLive() bool {
	return s == StateReady || s == StateRunning || s == StateBlocked
}

// ProcessSpec is the submission format accepted by Kernel.Submit.
type ProcessSpec struct {
	Name       string                 `yaml:"name" json:"name,omitempty"`
	Priority   int                    `yaml:"priority" json:"priority"`
	Resources  map[ResourceKind]int64 `yaml:"resources" json:"resources,omitempty"`
	Work       int64                  `yaml:"work" json:"work"`
	BlockEvery int64                  `yaml:"block_every" json:"block_every,omitempty"` // units run before a voluntary yield; 0 = never
	BlockTicks int64                  `yaml:"block_ticks" json:"block_ticks,omitempty"` // ticks spent blocked after each yield
}

// Process models a single process record owned by the ProcessTable.
// Values handed out by the table are copies; mutating them has no effect.
type Process struct {
	ID       ProcessID
	Name     string
	State    ProcessState
	Priority int

	Resources     map[ResourceKind]int64 // requested quantities (granted atomically or not at all)
	ArrivalTick   int64                  // tick at which the process was submitted
	RemainingWork int64                  // work units left; reaching zero terminates the process

	BlockEvery  int64
	BlockTicks  int64
	SinceYield  int64 // units run since the last yield
	UnblockAt   int64 // first tick at which a Blocked process may become Ready
	LastRunTick int64 // -1 until the process runs for the first time
	RunCount    int64 // number of ticks this process was selected
}

// This method returns a human-readable string representation of a Process.
func (p Process) String() string {
	return fmt.Sprintf("Process: (ID: %d, State: %s, Priority: %d, Remaining: %d, ArrivalTick: %d)",
		p.ID, p.State, p.Priority, p.RemainingWork, p.ArrivalTick)
}

// clone returns a deep copy so callers never alias table-owned maps.
func (p *Process) clone() Process {
	c := *p
	c.Resources = copyQuantities(p.Resources)
	return c
}

func copyQuantities(m map[ResourceKind]int64) map[ResourceKind]int64 {
	out := make(map[ResourceKind]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sortedKinds returns the keys of m in lexicographic order.
func sortedKinds[V any](m map[ResourceKind]V) []ResourceKind {
	kinds := make([]ResourceKind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
