package sim

import (
	"fmt"
	"sort"
)

// ProcessTable owns every process record of a simulation run, keyed by ID.
// Reads return copies; the only way to change a state is Transition.
type ProcessTable struct {
	procs        map[ProcessID]*Process
	nextID       ProcessID
	minPriority  int
	maxPriority  int
	maxProcesses int // bound on non-terminated processes, 0 = unbounded
}

// NewProcessTable creates an empty table accepting priorities in [minPriority, maxPriority].
func NewProcessTable(minPriority, maxPriority, maxProcesses int) *ProcessTable {
	return &ProcessTable{
		procs:        make(map[ProcessID]*Process),
		nextID:       1,
		minPriority:  minPriority,
		maxPriority:  maxPriority,
		maxProcesses: maxProcesses,
	}
}

// Validate checks a spec against the table's limits without mutating anything.
func (pt *ProcessTable) Validate(spec ProcessSpec) error {
	if spec.Priority < pt.minPriority || spec.Priority > pt.maxPriority {
		return fmt.Errorf("%w: priority %d outside [%d, %d]", ErrInvalidSpec, spec.Priority, pt.minPriority, pt.maxPriority)
	}
	if spec.Work <= 0 {
		return fmt.Errorf("%w: work must be positive, got %d", ErrInvalidSpec, spec.Work)
	}
	for _, kind := range sortedKinds(spec.Resources) {
		if q := spec.Resources[kind]; q < 0 {
			return fmt.Errorf("%w: resource %q quantity must be non-negative, got %d", ErrInvalidSpec, kind, q)
		}
	}
	if spec.BlockEvery < 0 {
		return fmt.Errorf("%w: block_every must be non-negative, got %d", ErrInvalidSpec, spec.BlockEvery)
	}
	if spec.BlockTicks < 0 {
		return fmt.Errorf("%w: block_ticks must be non-negative, got %d", ErrInvalidSpec, spec.BlockTicks)
	}
	if pt.maxProcesses > 0 && pt.activeCount() >= pt.maxProcesses {
		return fmt.Errorf("%w: process table full (%d active processes)", ErrInvalidSpec, pt.maxProcesses)
	}
	return nil
}

// Create validates spec, assigns the next ID and stores the process in StateCreated.
func (pt *ProcessTable) Create(spec ProcessSpec, arrivalTick int64) (ProcessID, error) {
	if err := pt.Validate(spec); err != nil {
		return 0, err
	}
	id := pt.nextID
	pt.nextID++
	pt.procs[id] = &Process{
		ID:            id,
		Name:          spec.Name,
		State:         StateCreated,
		Priority:      spec.Priority,
		Resources:     copyQuantities(spec.Resources),
		ArrivalTick:   arrivalTick,
		RemainingWork: spec.Work,
		BlockEvery:    spec.BlockEvery,
		BlockTicks:    spec.BlockTicks,
		LastRunTick:   -1,
	}
	return id, nil
}

// Transition moves a process along one edge of the state machine.
func (pt *ProcessTable) Transition(id ProcessID, to ProcessState) error {
	p, ok := pt.procs[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProcess, id)
	}
	if !CanTransition(p.State, to) {
		return fmt.Errorf("%w: process %d %s -> %s", ErrIllegalTransition, id, p.State, to)
	}
	p.State = to
	return nil
}

// Get returns a copy of the process record.
func (pt *ProcessTable) Get(id ProcessID) (Process, bool) {
	p, ok := pt.procs[id]
	if !ok {
		return Process{}, false
	}
	return p.clone(), true
}

// AllInState returns copies of every process in state s, ordered by ID.
func (pt *ProcessTable) AllInState(s ProcessState) []Process {
	var out []Process
	for _, id := range pt.ids() {
		if p := pt.procs[id]; p.State == s {
			out = append(out, p.clone())
		}
	}
	return out
}

// All returns copies of every process, ordered by ID.
func (pt *ProcessTable) All() []Process {
	out := make([]Process, 0, len(pt.procs))
	for _, id := range pt.ids() {
		out = append(out, pt.procs[id].clone())
	}
	return out
}

// Len returns the number of processes ever created in this table.
func (pt *ProcessTable) Len() int {
	return len(pt.procs)
}

// LiveCount returns the number of Ready, Running or Blocked processes.
func (pt *ProcessTable) LiveCount() int {
	n := 0
	for _, p := range pt.procs {
		if p.State.IsLive() {
			n++
		}
	}
	return n
}

// activeCount returns the number of processes not yet Terminated.
func (pt *ProcessTable) activeCount() int {
	n := 0
	for _, p := range pt.procs {
		if p.State != StateTerminated {
			n++
		}
	}
	return n
}

// mutate gives the scheduler scoped write access to bookkeeping fields.
// fn MUST NOT change State; use Transition for that.
func (pt *ProcessTable) mutate(id ProcessID, fn func(p *Process)) {
	p, ok := pt.procs[id]
	if !ok {
		panic(fmt.Sprintf("mutate: unknown process %d", id))
	}
	before := p.State
	fn(p)
	if p.State != before {
		panic(fmt.Sprintf("mutate: process %d state changed %s -> %s outside Transition", id, before, p.State))
	}
}

func (pt *ProcessTable) ids() []ProcessID {
	ids := make([]ProcessID, 0, len(pt.procs))
	for id := range pt.procs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
