package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Kernel is the only entry point a driver uses. It composes the Clock,
// ResourcePool, ProcessTable and Scheduler of exactly one simulation run.
//
// Thread-safety: NOT thread-safe. One Kernel has one logical owner; run
// independent experiments on independent Kernels (see RunBatch).
type Kernel struct {
	config    KernelConfig
	clock     *Clock
	pool      *ResourcePool
	table     *ProcessTable
	scheduler *Scheduler
	events    eventBus
	shutdown  bool
}

// NewKernel validates cfg and builds a kernel at tick 0 with no processes.
func NewKernel(cfg KernelConfig) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kernel config: %w", err)
	}
	cfg.Capacities = copyQuantities(cfg.Capacities)
	k := &Kernel{
		config: cfg,
		clock:  NewClock(cfg.TimeStep),
		pool:   NewResourcePool(cfg.Capacities),
		table:  NewProcessTable(cfg.MinPriority, cfg.MaxPriority, cfg.MaxProcesses),
	}
	k.scheduler = NewScheduler(k.table, k.pool, k.clock, NewPolicy(cfg.Policy), cfg.Quantum, k.events.emit)
	k.scheduler.WatchUtilization(cfg.UtilizationWarn)
	return k, nil
}

// Config returns a copy of the configuration the kernel was built with.
func (k *Kernel) Config() KernelConfig {
	cfg := k.config
	cfg.Capacities = copyQuantities(k.config.Capacities)
	return cfg
}

// Subscribe registers a handler for every lifecycle event.
func (k *Kernel) Subscribe(h EventHandler) {
	k.events.subscribe(h)
}

// Now returns the current tick.
func (k *Kernel) Now() int64 { return k.clock.Now() }

// Elapsed returns simulated seconds since tick 0.
func (k *Kernel) Elapsed() float64 { return k.clock.Elapsed() }

// Submit validates spec, creates the process and makes it Ready.
// An invalid spec is rejected before any state changes.
func (k *Kernel) Submit(spec ProcessSpec) (ProcessID, error) {
	if k.shutdown {
		return 0, ErrShutdown
	}
	for _, kind := range sortedKinds(spec.Resources) {
		if !k.pool.Has(kind) {
			return 0, fmt.Errorf("%w: unknown resource kind %q", ErrInvalidSpec, kind)
		}
	}
	now := k.clock.Now()
	id, err := k.table.Create(spec, now)
	if err != nil {
		return 0, err
	}
	if err := k.table.Transition(id, StateReady); err != nil {
		panic(fmt.Sprintf("submit: %v", err))
	}
	logrus.Debugf("[tick %07d] submitted pid=%d name=%q priority=%d work=%d", now, id, spec.Name, spec.Priority, spec.Work)
	k.events.emit(Event{Tick: now, Type: EventSubmitted, PID: id, From: StateCreated, To: StateReady, Reason: "request validated"})
	return id, nil
}

// Tick runs a single scheduler tick. After Shutdown it is a no-op.
func (k *Kernel) Tick() TickResult {
	if k.shutdown {
		return TickResult{Tick: k.clock.Now()}
	}
	return k.scheduler.Tick()
}

// IsIdle reports whether no process is Ready, Running or Blocked.
func (k *Kernel) IsIdle() bool {
	return k.table.LiveCount() == 0
}

// RunUntilIdle ticks until the kernel is idle or maxTicks ticks have run in
// this call. Hitting the bound returns a *TimeoutError wrapping ErrTimeout
// together with the partial snapshot. With maxTicks=0 it returns immediately.
func (k *Kernel) RunUntilIdle(maxTicks int64) (Snapshot, error) {
	if maxTicks < 0 {
		panic(fmt.Sprintf("RunUntilIdle: maxTicks must be non-negative, got %d", maxTicks))
	}
	var ran int64
	for !k.IsIdle() {
		if ran >= maxTicks {
			snap := k.Snapshot()
			logrus.Warnf("[tick %07d] tick bound %d reached with %d live processes", snap.Tick, maxTicks, snap.LiveCount())
			return snap, &TimeoutError{MaxTicks: maxTicks, Snapshot: snap}
		}
		k.Tick()
		ran++
	}
	logrus.Infof("[tick %07d] idle after %d ticks", k.clock.Now(), ran)
	return k.Snapshot(), nil
}

// Kill terminates id and synchronously releases everything it holds.
// Killing an already Terminated process is a no-op.
func (k *Kernel) Kill(id ProcessID) error {
	p, ok := k.table.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProcess, id)
	}
	if p.State == StateTerminated {
		return nil
	}
	if err := k.table.Transition(id, StateTerminated); err != nil {
		return err
	}
	k.pool.ReleaseAll(id)
	k.scheduler.forget(id)
	now := k.clock.Now()
	logrus.Debugf("[tick %07d] killed pid=%d from %s", now, id, p.State)
	k.events.emit(Event{Tick: now, Type: EventKilled, PID: id, From: p.State, To: StateTerminated, Reason: "killed"})
	return nil
}

// Process returns a copy of the process record.
func (k *Kernel) Process(id ProcessID) (Process, bool) {
	return k.table.Get(id)
}

// Processes returns copies of every process in state s, ordered by ID.
func (k *Kernel) Processes(s ProcessState) []Process {
	return k.table.AllInState(s)
}

// Snapshot returns an immutable view of all process and resource state.
func (k *Kernel) Snapshot() Snapshot {
	return takeSnapshot(k.clock, k.table, k.pool)
}

// Shutdown kills every live process and closes the kernel. Further Submit
// calls fail with ErrShutdown. Calling it twice is harmless.
func (k *Kernel) Shutdown() Snapshot {
	if !k.shutdown {
		for _, p := range k.table.All() {
			if p.State.IsLive() {
				if err := k.Kill(p.ID); err != nil {
					panic(fmt.Sprintf("shutdown: %v", err))
				}
			}
		}
		k.shutdown = true
		logrus.Infof("[tick %07d] kernel shut down", k.clock.Now())
	}
	return k.Snapshot()
}
