package sim

import (
	"errors"
	"fmt"
)

// Error taxonomy of the kernel. Callers match with errors.Is; every returned
// error wraps exactly one of these sentinels.
var (
	// ErrInvalidSpec rejects a malformed submission before any state changes.
	ErrInvalidSpec = errors.New("invalid process spec")
	// ErrIllegalTransition is a state-machine violation. Inside the scheduler it is unreachable.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrInvalidRelease reports releasing more than a process holds.
	ErrInvalidRelease = errors.New("invalid resource release")
	// ErrTimeout reports that RunUntilIdle hit its tick bound.
	ErrTimeout = errors.New("tick bound reached before idle")
	// ErrUnknownProcess reports a process ID the table never issued.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrShutdown rejects calls into a kernel that has been shut down.
	ErrShutdown = errors.New("kernel is shut down")
)

// TimeoutError carries the partial snapshot taken when RunUntilIdle gave up.
type TimeoutError struct {
	MaxTicks int64
	Snapshot Snapshot
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: %d ticks (tick=%d, live=%d)",
		ErrTimeout, e.MaxTicks, e.Snapshot.Tick, e.Snapshot.LiveCount())
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }
