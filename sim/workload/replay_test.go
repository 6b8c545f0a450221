package workload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioos/bioos-sim/sim"
)

func newReplayKernel(t *testing.T) *sim.Kernel {
	t.Helper()
	k, err := sim.NewKernel(sim.NewKernelConfig(map[sim.ResourceKind]int64{"memory": 100}, "priority"))
	require.NoError(t, err)
	return k
}

func TestReplay_SubmitsAtArrivalTick(t *testing.T) {
	// GIVEN entries arriving at ticks 0 and 4, with an idle gap between
	k := newReplayKernel(t)
	entries := []Entry{
		{At: 0, ProcessSpec: sim.ProcessSpec{Name: "a", Priority: 5, Work: 1}},
		{At: 4, ProcessSpec: sim.ProcessSpec{Name: "b", Priority: 5, Work: 1}},
	}

	// WHEN replayed
	res, err := Replay(k, entries, 100)

	// THEN b arrives at tick 4 and the run ends after it completes
	require.NoError(t, err)
	assert.Equal(t, []sim.ProcessID{1, 2}, res.IDs)
	b, ok := res.Snapshot.Process(2)
	require.True(t, ok)
	assert.Equal(t, int64(4), b.ArrivalTick)
	assert.Equal(t, sim.StateTerminated, b.State)
	assert.Equal(t, int64(5), res.Snapshot.Tick)
}

func TestReplay_InvalidEntriesRecordedAndSkipped(t *testing.T) {
	k := newReplayKernel(t)
	entries := []Entry{
		{At: 0, ProcessSpec: sim.ProcessSpec{Name: "bad", Priority: 99, Work: 1}},
		{At: 0, ProcessSpec: sim.ProcessSpec{Name: "gpu", Priority: 5, Work: 1, Resources: map[sim.ResourceKind]int64{"gpu": 1}}},
		{At: 0, ProcessSpec: sim.ProcessSpec{Name: "ok", Priority: 5, Work: 1}},
	}

	res, err := Replay(k, entries, 100)

	require.NoError(t, err)
	assert.Len(t, res.Rejected, 2)
	assert.ErrorIs(t, res.Rejected[0], sim.ErrInvalidSpec)
	assert.ErrorIs(t, res.Rejected[1], sim.ErrInvalidSpec)
	assert.Equal(t, []sim.ProcessID{0, 0, 1}, res.IDs)
}

func TestReplay_TimeoutBeforeAllSubmitted(t *testing.T) {
	// GIVEN an entry that arrives after the tick bound
	k := newReplayKernel(t)
	entries := []Entry{
		{At: 0, ProcessSpec: sim.ProcessSpec{Priority: 5, Work: 1}},
		{At: 10, ProcessSpec: sim.ProcessSpec{Priority: 5, Work: 1}},
	}

	// WHEN replayed with a bound of 3
	res, err := Replay(k, entries, 3)

	// THEN the run times out at tick 3 with the late entry never submitted
	var te *sim.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, int64(3), te.MaxTicks)
	assert.Equal(t, int64(3), res.Snapshot.Tick)
	assert.Len(t, res.Snapshot.Processes, 1)
	assert.Equal(t, sim.ProcessID(0), res.IDs[1])
}

func TestReplay_TimeoutAfterAllSubmittedReportsTotalBound(t *testing.T) {
	k := newReplayKernel(t)
	entries := []Entry{
		{At: 2, ProcessSpec: sim.ProcessSpec{Priority: 5, Work: 10}},
	}

	res, err := Replay(k, entries, 6)

	var te *sim.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, int64(6), te.MaxTicks)
	assert.Equal(t, int64(6), res.Snapshot.Tick)
	p, _ := res.Snapshot.Process(1)
	assert.Equal(t, int64(6), p.RemainingWork)
}

func TestReplay_ShutdownKernelFails(t *testing.T) {
	k := newReplayKernel(t)
	k.Shutdown()

	_, err := Replay(k, []Entry{{ProcessSpec: sim.ProcessSpec{Priority: 5, Work: 1}}}, 10)

	assert.ErrorIs(t, err, sim.ErrShutdown)
}

func TestReplay_EmptyEntries(t *testing.T) {
	k := newReplayKernel(t)

	res, err := Replay(k, nil, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Snapshot.Tick)
	assert.Empty(t, res.IDs)
}
