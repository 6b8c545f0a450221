package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BatchRun describes one independent simulation run of a batch experiment.
type BatchRun struct {
	Name     string
	Config   KernelConfig
	MaxTicks int64
	// Setup submits the workload (or subscribes observers) before the run starts.
	Setup func(k *Kernel) error
	// Drive runs the kernel to completion and reports the final snapshot and
	// the number of rejected submissions. It must honor MaxTicks and return an
	// error wrapping ErrTimeout when the bound is hit. Nil means RunUntilIdle.
	Drive func(k *Kernel, maxTicks int64) (Snapshot, int, error)
}

// BatchResult is the outcome of one BatchRun.
type BatchResult struct {
	RunID    string
	Name     string
	Snapshot Snapshot
	TimedOut bool
	Rejected int   // submissions refused by the kernel during Drive
	Err      error // setup or config failure; a timeout is reported via TimedOut
}

// RunBatch executes runs concurrently, one goroutine and one exclusive Kernel
// per run. Nothing is shared between runs, so no locking is needed beyond
// collecting results. Results are returned in the order of runs.
// Cancelling ctx skips runs that have not started yet.
func RunBatch(ctx context.Context, runs []BatchRun) []BatchResult {
	results := make([]BatchResult, len(runs))
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = runOne(ctx, runs[i])
		}(i)
	}
	wg.Wait()
	return results
}

func runOne(ctx context.Context, run BatchRun) BatchResult {
	res := BatchResult{RunID: uuid.NewString(), Name: run.Name}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	k, err := NewKernel(run.Config)
	if err != nil {
		res.Err = err
		return res
	}
	if run.Setup != nil {
		if err := run.Setup(k); err != nil {
			res.Err = fmt.Errorf("setup %q: %w", run.Name, err)
			return res
		}
	}
	drive := run.Drive
	if drive == nil {
		drive = func(k *Kernel, maxTicks int64) (Snapshot, int, error) {
			snap, err := k.RunUntilIdle(maxTicks)
			return snap, 0, err
		}
	}
	snap, rejected, err := drive(k, run.MaxTicks)
	res.Snapshot = snap
	res.Rejected = rejected
	if errors.Is(err, ErrTimeout) {
		res.TimedOut = true
	} else if err != nil {
		res.Err = err
	}
	logrus.Infof("batch run %s (%s) finished at tick %d, rejected=%d timed_out=%v", res.Name, res.RunID, snap.Tick, res.Rejected, res.TimedOut)
	return res
}
