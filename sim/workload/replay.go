package workload

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bioos/bioos-sim/sim"
)

// ReplayResult reports how a timed workload was fed into a Kernel.
type ReplayResult struct {
	Snapshot sim.Snapshot
	IDs      []sim.ProcessID // IDs[i] is the process created for entries[i], 0 if rejected
	Rejected map[int]error   // entry index -> submission error
}

// Replay submits each entry at its At tick and ticks the kernel until every
// entry is submitted and the kernel is idle, or maxTicks ticks have run.
// Entries must be sorted by At (WorkloadSpec.Entries does this).
// Rejected submissions (sim.ErrInvalidSpec) are recorded and skipped; the
// returned error is nil or wraps sim.ErrTimeout.
func Replay(k *sim.Kernel, entries []Entry, maxTicks int64) (*ReplayResult, error) {
	res := &ReplayResult{
		IDs:      make([]sim.ProcessID, len(entries)),
		Rejected: make(map[int]error),
	}
	next := 0
	var ran int64
	for {
		for next < len(entries) && entries[next].At <= k.Now() {
			id, err := k.Submit(entries[next].ProcessSpec)
			if err != nil {
				if !errors.Is(err, sim.ErrInvalidSpec) {
					return res, fmt.Errorf("entry %d: %w", next, err)
				}
				logrus.Warnf("[tick %07d] rejected entry %d (%s): %v", k.Now(), next, entries[next].Name, err)
				res.Rejected[next] = err
			}
			res.IDs[next] = id
			next++
		}
		if next == len(entries) {
			snap, err := k.RunUntilIdle(maxTicks - ran)
			res.Snapshot = snap
			var te *sim.TimeoutError
			if errors.As(err, &te) {
				te.MaxTicks = maxTicks
			}
			return res, err
		}
		if ran >= maxTicks {
			res.Snapshot = k.Snapshot()
			return res, &sim.TimeoutError{MaxTicks: maxTicks, Snapshot: res.Snapshot}
		}
		k.Tick()
		ran++
	}
}
