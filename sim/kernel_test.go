package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKernel(t *testing.T, caps map[ResourceKind]int64, policy string) *Kernel {
	t.Helper()
	k, err := NewKernel(NewKernelConfig(caps, policy))
	require.NoError(t, err)
	return k
}

func mustSubmit(t *testing.T, k *Kernel, spec ProcessSpec) ProcessID {
	t.Helper()
	id, err := k.Submit(spec)
	require.NoError(t, err)
	return id
}

// assertKernelInvariants checks the properties that must hold between ticks.
func assertKernelInvariants(t *testing.T, k *Kernel) {
	t.Helper()
	snap := k.Snapshot()
	held := make(map[ResourceKind]int64)
	running := 0
	for _, p := range snap.Processes {
		for kind, q := range p.Resources {
			held[kind] += q
		}
		switch p.State {
		case StateTerminated:
			assert.Empty(t, p.Resources, "terminated pid=%d holds resources", p.ID)
			assert.GreaterOrEqual(t, p.RemainingWork, int64(0))
		case StateRunning:
			running++
		case StateCreated:
			t.Errorf("pid=%d left in Created after Submit", p.ID)
		}
	}
	assert.LessOrEqual(t, running, 1, "at most one process runs per tick")
	for _, r := range snap.Resources {
		assert.LessOrEqual(t, r.Used, r.Capacity, "kind %s over capacity", r.Kind)
		assert.GreaterOrEqual(t, r.Used, int64(0))
		assert.Equal(t, held[r.Kind], r.Used, "kind %s: sum of holdings != used", r.Kind)
	}
}

func TestNewKernel_InvalidConfig(t *testing.T) {
	cfg := NewKernelConfig(map[ResourceKind]int64{"memory": 10}, "lottery")
	_, err := NewKernel(cfg)
	assert.Error(t, err)
}

func TestKernel_Submit_TransitionsToReady(t *testing.T) {
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")
	var events []Event
	k.Subscribe(func(ev Event) { events = append(events, ev) })

	id := mustSubmit(t, k, ProcessSpec{Name: "a", Priority: 5, Work: 2})

	p, ok := k.Process(id)
	require.True(t, ok)
	assert.Equal(t, StateReady, p.State)
	require.Len(t, events, 1)
	assert.Equal(t, Event{Tick: 0, Type: EventSubmitted, PID: id, From: StateCreated, To: StateReady, Reason: "request validated"}, events[0])
}

func TestKernel_Submit_RejectsWithoutStateChange(t *testing.T) {
	tests := []struct {
		name string
		spec ProcessSpec
	}{
		{"unknown resource kind", ProcessSpec{Priority: 5, Work: 1, Resources: map[ResourceKind]int64{"gpu": 1}}},
		{"priority out of range", ProcessSpec{Priority: 0, Work: 1}},
		{"no work", ProcessSpec{Priority: 5}},
		{"negative request", ProcessSpec{Priority: 5, Work: 1, Resources: map[ResourceKind]int64{"memory": -5}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")
			before, err := k.Snapshot().JSON()
			require.NoError(t, err)

			_, err = k.Submit(tc.spec)

			assert.ErrorIs(t, err, ErrInvalidSpec)
			after, _ := k.Snapshot().JSON()
			assert.Equal(t, string(before), string(after))
		})
	}
}

func TestKernel_Submit_OverCapacityRequestAccepted(t *testing.T) {
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")

	_, err := k.Submit(ProcessSpec{Priority: 5, Work: 1, Resources: map[ResourceKind]int64{"memory": 5000}})

	assert.NoError(t, err)
}

func TestKernel_RunUntilIdle_CompletesAndReleases(t *testing.T) {
	// GIVEN three processes that all fit
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 1000}, "")
	for i := 0; i < 3; i++ {
		mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 2, Resources: map[ResourceKind]int64{"memory": 100}})
	}

	// WHEN run to idle
	snap, err := k.RunUntilIdle(100)

	// THEN every process terminated, memory is free again, and exactly
	// total-work ticks elapsed
	require.NoError(t, err)
	assert.Equal(t, int64(6), snap.Tick)
	assert.Equal(t, 3, snap.CountByState()[StateTerminated])
	r, ok := snap.Resource("memory")
	require.True(t, ok)
	assert.Equal(t, int64(0), r.Used)
	assert.True(t, k.IsIdle())
}

func TestKernel_Starvation_UnsatisfiableHighPriorityStaysReady(t *testing.T) {
	// GIVEN memory=100, a priority-10 process asking for 200 and a
	// priority-1 process asking for 50
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "priority")
	big := mustSubmit(t, k, ProcessSpec{Name: "big", Priority: 10, Work: 1, Resources: map[ResourceKind]int64{"memory": 200}})
	small := mustSubmit(t, k, ProcessSpec{Name: "small", Priority: 1, Work: 1, Resources: map[ResourceKind]int64{"memory": 50}})

	// WHEN run with a five-tick bound
	snap, err := k.RunUntilIdle(5)

	// THEN the low-priority process ran to completion, the big one never
	// left Ready, and the run timed out with a partial snapshot
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, int64(5), te.MaxTicks)
	assert.Equal(t, snap.Tick, te.Snapshot.Tick)

	assert.Equal(t, int64(5), snap.Tick)
	ps, _ := snap.Process(small)
	assert.Equal(t, StateTerminated, ps.State)
	pb, _ := snap.Process(big)
	assert.Equal(t, StateReady, pb.State)
	assert.Equal(t, int64(1), pb.RemainingWork)
	assert.Empty(t, pb.Resources)
}

func TestKernel_RunUntilIdle_ZeroBoundReturnsImmediately(t *testing.T) {
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")
	mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 1})

	snap, err := k.RunUntilIdle(0)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int64(0), snap.Tick)
	assert.Equal(t, 1, snap.LiveCount())
}

func TestKernel_RunUntilIdle_IdleKernelNoTicks(t *testing.T) {
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")

	snap, err := k.RunUntilIdle(0)

	assert.NoError(t, err)
	assert.Equal(t, int64(0), snap.Tick)
}

func TestKernel_RunUntilIdle_NegativeBoundPanics(t *testing.T) {
	k := newTestKernel(t, nil, "")
	assert.Panics(t, func() { _, _ = k.RunUntilIdle(-1) })
}

func TestKernel_Kill_ReleasesAndIsIdempotent(t *testing.T) {
	// GIVEN a running process holding memory
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")
	id := mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 10, Resources: map[ResourceKind]int64{"memory": 60}})
	k.Tick()
	p, _ := k.Process(id)
	require.Equal(t, StateRunning, p.State)
	var killed int
	k.Subscribe(func(ev Event) {
		if ev.Type == EventKilled {
			killed++
		}
	})

	// WHEN it is killed twice
	require.NoError(t, k.Kill(id))
	require.NoError(t, k.Kill(id))

	// THEN it is Terminated, memory is free, and only one event was emitted
	p, _ = k.Process(id)
	assert.Equal(t, StateTerminated, p.State)
	r, _ := k.Snapshot().Resource("memory")
	assert.Equal(t, int64(0), r.Used)
	assert.Equal(t, 1, killed)

	// the next tick does not try to preempt the killed process
	res := k.Tick()
	assert.Equal(t, ProcessID(0), res.Preempted)
	assertKernelInvariants(t, k)
}

func TestKernel_Kill_BlockedAndReady(t *testing.T) {
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")
	blocked := mustSubmit(t, k, ProcessSpec{Priority: 9, Work: 5, BlockEvery: 1, BlockTicks: 10, Resources: map[ResourceKind]int64{"memory": 30}})
	ready := mustSubmit(t, k, ProcessSpec{Priority: 1, Work: 5})
	k.Tick()
	p, _ := k.Process(blocked)
	require.Equal(t, StateBlocked, p.State)

	require.NoError(t, k.Kill(blocked))
	require.NoError(t, k.Kill(ready))

	assert.True(t, k.IsIdle())
	assertKernelInvariants(t, k)
}

func TestKernel_Kill_UnknownID(t *testing.T) {
	k := newTestKernel(t, nil, "")
	assert.ErrorIs(t, k.Kill(7), ErrUnknownProcess)
}

func TestKernel_Shutdown_KillsAllAndRejectsSubmit(t *testing.T) {
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")
	mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 10, Resources: map[ResourceKind]int64{"memory": 10}})
	mustSubmit(t, k, ProcessSpec{Priority: 4, Work: 10, Resources: map[ResourceKind]int64{"memory": 10}})
	k.Tick()

	snap := k.Shutdown()

	assert.Equal(t, 0, snap.LiveCount())
	assert.Equal(t, 2, snap.CountByState()[StateTerminated])
	_, err := k.Submit(ProcessSpec{Priority: 5, Work: 1})
	assert.ErrorIs(t, err, ErrShutdown)
	before := k.Now()
	k.Tick()
	assert.Equal(t, before, k.Now(), "tick after shutdown is a no-op")
	again := k.Shutdown()
	assert.Equal(t, snap, again)
}

func TestKernel_MaxProcesses_FreedByTermination(t *testing.T) {
	// GIVEN a kernel limited to two concurrent processes
	cfg := NewKernelConfig(map[ResourceKind]int64{"memory": 10}, "")
	cfg.MaxProcesses = 2
	k, err := NewKernel(cfg)
	require.NoError(t, err)
	mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 1})
	mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 1})
	_, err = k.Submit(ProcessSpec{Priority: 5, Work: 1})
	require.ErrorIs(t, err, ErrInvalidSpec, "third concurrent process exceeds the bound")

	// WHEN both run to completion
	_, err = k.RunUntilIdle(10)
	require.NoError(t, err)

	// THEN new submissions are accepted again
	id, err := k.Submit(ProcessSpec{Priority: 5, Work: 1})
	assert.NoError(t, err)
	assert.Equal(t, ProcessID(3), id)
}

func TestKernel_Snapshot_IsIndependentOfLaterTicks(t *testing.T) {
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 100}, "")
	id := mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 3, Resources: map[ResourceKind]int64{"memory": 10}})
	k.Tick()
	snap := k.Snapshot()

	_, err := k.RunUntilIdle(10)
	require.NoError(t, err)

	p, _ := snap.Process(id)
	assert.Equal(t, StateRunning, p.State)
	assert.Equal(t, int64(2), p.RemainingWork)
	assert.Equal(t, int64(10), p.Resources["memory"])
}

func TestKernel_Config_ReturnsCopy(t *testing.T) {
	caps := map[ResourceKind]int64{"memory": 100}
	k := newTestKernel(t, caps, "")
	caps["memory"] = 1

	cfg := k.Config()
	cfg.Capacities["memory"] = 2

	assert.Equal(t, int64(100), k.Config().Capacities["memory"])
	r, _ := k.Snapshot().Resource("memory")
	assert.Equal(t, int64(100), r.Capacity)
}

func TestKernel_Elapsed_UsesTimeStep(t *testing.T) {
	k := newTestKernel(t, nil, "")
	for i := 0; i < 5; i++ {
		k.Tick()
	}
	assert.InDelta(t, 0.5, k.Elapsed(), 1e-9)
}

// randomWorkload builds a reproducible mixed workload from seed.
func randomWorkload(seed int64, n int) []ProcessSpec {
	rng := rand.New(rand.NewSource(seed))
	specs := make([]ProcessSpec, n)
	for i := range specs {
		specs[i] = ProcessSpec{
			Priority:  1 + rng.Intn(10),
			Work:      1 + rng.Int63n(6),
			Resources: map[ResourceKind]int64{"memory": rng.Int63n(400), "cpu": rng.Int63n(2)},
		}
		if rng.Intn(4) == 0 {
			specs[i].BlockEvery = 1 + rng.Int63n(3)
			specs[i].BlockTicks = rng.Int63n(3)
		}
	}
	return specs
}

func TestKernel_InvariantsHoldAtEveryTick(t *testing.T) {
	for _, policy := range PolicyNames() {
		t.Run(policy, func(t *testing.T) {
			// GIVEN a random workload under tight capacity
			k := newTestKernel(t, map[ResourceKind]int64{"memory": 1000, "cpu": 2}, policy)
			var illegal []Event
			k.Subscribe(func(ev Event) {
				if ev.Type != EventDenied && ev.Type != EventPressure && !CanTransition(ev.From, ev.To) {
					illegal = append(illegal, ev)
				}
			})
			specs := randomWorkload(7, 40)

			// WHEN processes arrive over time and the kernel ticks
			for tick := 0; tick < 500 && (len(specs) > 0 || !k.IsIdle()); tick++ {
				if len(specs) > 0 && tick%2 == 0 {
					mustSubmit(t, k, specs[0])
					specs = specs[1:]
				}
				k.Tick()

				// THEN the invariants hold after every tick
				assertKernelInvariants(t, k)
			}
			assert.Empty(t, illegal)
			assert.True(t, k.IsIdle(), "every request fits, so the workload drains")
		})
	}
}

func TestKernel_Determinism_IdenticalSnapshotJSON(t *testing.T) {
	run := func() []byte {
		k := newTestKernel(t, map[ResourceKind]int64{"memory": 800, "cpu": 1}, "priority")
		for _, s := range randomWorkload(99, 25) {
			mustSubmit(t, k, s)
		}
		for i := 0; i < 30; i++ {
			k.Tick()
		}
		data, err := k.Snapshot().JSON()
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, string(run()), string(run()))
}

func TestKernel_Events_FollowLifecycleOrder(t *testing.T) {
	k := newTestKernel(t, map[ResourceKind]int64{"memory": 10}, "")
	var types []EventType
	k.Subscribe(func(ev Event) { types = append(types, ev.Type) })
	mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 2, BlockEvery: 1})

	_, err := k.RunUntilIdle(10)
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventSubmitted, EventScheduled, EventBlocked, EventUnblocked, EventScheduled, EventTerminated,
	}, types)
}

func TestKernel_Subscribe_NilPanics(t *testing.T) {
	k := newTestKernel(t, nil, "")
	assert.Panics(t, func() { k.Subscribe(nil) })
}

func TestKernel_UtilizationWarn_EmitsPressureEvent(t *testing.T) {
	tests := []struct {
		name string
		warn float64
		want int
	}{
		{"default level", DefaultUtilizationWarn, 1},
		{"below request", 0.5, 1},
		{"above request", 0.95, 0},
		{"disabled", 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN a kernel watching memory and a process taking 90% of it
			cfg := NewKernelConfig(map[ResourceKind]int64{"memory": 100}, "")
			cfg.UtilizationWarn = tc.warn
			k, err := NewKernel(cfg)
			require.NoError(t, err)
			var pressure []Event
			k.Subscribe(func(ev Event) {
				if ev.Type == EventPressure {
					pressure = append(pressure, ev)
				}
			})
			mustSubmit(t, k, ProcessSpec{Priority: 5, Work: 3, Resources: map[ResourceKind]int64{"memory": 90}})

			// WHEN it runs to completion
			_, err = k.RunUntilIdle(10)
			require.NoError(t, err)

			// THEN memory pressure is reported once at most, on the granting tick
			require.Len(t, pressure, tc.want)
			if tc.want > 0 {
				assert.Equal(t, ResourceKind("memory"), pressure[0].Kind)
				assert.Equal(t, int64(0), pressure[0].Tick)
				assert.Zero(t, pressure[0].PID)
			}
		})
	}
}
