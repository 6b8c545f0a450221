package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// TickResult summarizes what one scheduler tick did.
type TickResult struct {
	Tick       int64       // tick that was executed (the clock reads Tick+1 afterwards)
	Ran        ProcessID   // 0 if no candidate could be granted
	Denied     []ProcessID // candidates skipped because their request did not fit
	Unblocked  []ProcessID
	Preempted  ProcessID      // 0 if nothing was left Running by the previous tick
	Terminated bool           // Ran finished its work this tick
	Blocked    bool           // Ran yielded this tick
	Pressured  []ResourceKind // kinds that reached the utilization warning level this tick
}

// Scheduler advances the simulation one tick at a time. It holds only IDs
// into the ProcessTable and never owns process records.
type Scheduler struct {
	table   *ProcessTable
	pool    *ResourcePool
	clock   *Clock
	policy  Policy
	quantum int64
	emit    func(Event)

	running ProcessID // process left Running by the previous tick, 0 if none

	warnAt    float64               // utilization warning level, 0 = off
	pressured map[ResourceKind]bool // kinds currently at or above warnAt
}

// NewScheduler wires a scheduler over the given components.
func NewScheduler(table *ProcessTable, pool *ResourcePool, clock *Clock, policy Policy, quantum int64, emit func(Event)) *Scheduler {
	if quantum <= 0 {
		panic(fmt.Sprintf("NewScheduler: quantum must be positive, got %d", quantum))
	}
	if emit == nil {
		emit = func(Event) {}
	}
	return &Scheduler{table: table, pool: pool, clock: clock, policy: policy, quantum: quantum, emit: emit}
}

// Tick executes one atomic scheduling step:
//   - preempt the process left Running by the previous tick
//   - unblock Blocked processes whose UnblockAt has been reached
//   - order Ready candidates by policy and grant the first one that fits
//   - run it for one quantum, then terminate or yield it as needed
//   - report resource kinds that reached the utilization warning level
//   - advance the clock
func (s *Scheduler) Tick() TickResult {
	now := s.clock.Now()
	res := TickResult{Tick: now}

	if s.running != 0 {
		if p, ok := s.table.Get(s.running); ok && p.State == StateRunning {
			s.move(now, s.running, StateReady, EventPreempted, "quantum expired")
			res.Preempted = s.running
		}
		s.running = 0
	}

	for _, p := range s.table.AllInState(StateBlocked) {
		if p.UnblockAt <= now {
			s.move(now, p.ID, StateReady, EventUnblocked, fmt.Sprintf("unblock_at=%d", p.UnblockAt))
			res.Unblocked = append(res.Unblocked, p.ID)
		}
	}

	candidates := s.table.AllInState(StateReady)
	s.policy.Order(candidates, now)

	// bounded by the candidate count: each candidate is tried at most once per tick
	for _, c := range candidates {
		if !s.grant(c) {
			logrus.Debugf("[tick %07d] denied pid=%d request=%v", now, c.ID, c.Resources)
			s.emit(Event{Tick: now, Type: EventDenied, PID: c.ID, Reason: "insufficient resources"})
			res.Denied = append(res.Denied, c.ID)
			continue
		}
		s.move(now, c.ID, StateRunning, EventScheduled, "granted")
		res.Ran = c.ID
		s.run(now, c.ID, &res)
		break
	}

	res.Pressured = s.checkPressure(now)
	s.clock.Advance()
	return res
}

// WatchUtilization makes Tick emit an EventPressure when a resource kind's
// utilization reaches threshold. A kind is reported again only after it has
// dropped below threshold. threshold <= 0 turns the check off.
func (s *Scheduler) WatchUtilization(threshold float64) {
	s.warnAt = threshold
	s.pressured = make(map[ResourceKind]bool)
}

func (s *Scheduler) checkPressure(now int64) []ResourceKind {
	if s.warnAt <= 0 {
		return nil
	}
	var crossed []ResourceKind
	for _, kind := range s.pool.Kinds() {
		u := s.pool.Utilization(kind)
		if u < s.warnAt {
			delete(s.pressured, kind)
			continue
		}
		if s.pressured[kind] {
			continue
		}
		s.pressured[kind] = true
		crossed = append(crossed, kind)
		logrus.Warnf("[tick %07d] %s utilization %.1f%% reached warning level %.1f%% (%d/%d used)",
			now, kind, u*100, s.warnAt*100, s.pool.Used(kind), s.pool.Capacity(kind))
		s.emit(Event{Tick: now, Type: EventPressure, Kind: kind,
			Reason: fmt.Sprintf("utilization %.3f >= %.3f", u, s.warnAt)})
	}
	return crossed
}

// grant makes sure c holds its full request. A process keeps its grant from
// its first run until termination.
func (s *Scheduler) grant(c Process) bool {
	if s.pool.Holds(c.ID) {
		return true
	}
	return s.pool.AllocateAll(c.ID, c.Resources)
}

func (s *Scheduler) run(now int64, id ProcessID, res *TickResult) {
	var p Process
	s.table.mutate(id, func(rec *Process) {
		units := min(s.quantum, rec.RemainingWork)
		rec.RemainingWork -= units
		rec.SinceYield += units
		rec.LastRunTick = now
		rec.RunCount++
		p = *rec
	})
	logrus.Debugf("[tick %07d] ran pid=%d remaining=%d", now, id, p.RemainingWork)

	switch {
	case p.RemainingWork == 0:
		s.move(now, id, StateTerminated, EventTerminated, "work complete")
		s.pool.ReleaseAll(id)
		res.Terminated = true
	case p.BlockEvery > 0 && p.SinceYield >= p.BlockEvery:
		s.table.mutate(id, func(rec *Process) {
			rec.SinceYield = 0
			rec.UnblockAt = now + 1 + rec.BlockTicks
		})
		s.move(now, id, StateBlocked, EventBlocked, fmt.Sprintf("yield for %d ticks", p.BlockTicks))
		res.Blocked = true
	default:
		s.running = id
	}
}

// forget drops id from the running slot, e.g. after it was killed.
func (s *Scheduler) forget(id ProcessID) {
	if s.running == id {
		s.running = 0
	}
}

// move applies a transition the scheduler has already proven legal.
// A failure here is an invariant violation.
func (s *Scheduler) move(now int64, id ProcessID, to ProcessState, typ EventType, reason string) {
	p, _ := s.table.Get(id)
	if err := s.table.Transition(id, to); err != nil {
		panic(fmt.Sprintf("scheduler: %v", err))
	}
	s.emit(Event{Tick: now, Type: typ, PID: id, From: p.State, To: to, Reason: reason})
}
