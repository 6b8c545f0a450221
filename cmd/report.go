package cmd

import (
	"fmt"
	"io"
	"sort"

	sim "github.com/bioos/bioos-sim/sim"
	"github.com/bioos/bioos-sim/sim/trace"
)

// Report is the human-readable summary printed after a run.
// The RunID identifies the run in logs; it is never part of the snapshot.
type Report struct {
	RunID    string
	Name     string
	Snapshot sim.Snapshot
	TimedOut bool
	Rejected int
	Elapsed  float64 // simulated seconds
	Trace    *trace.TraceSummary
}

// NewReport builds a report for a finished run.
func NewReport(runID string, snap sim.Snapshot, timedOut bool, rejected int, elapsed float64) *Report {
	return &Report{RunID: runID, Snapshot: snap, TimedOut: timedOut, Rejected: rejected, Elapsed: elapsed}
}

// Outcome returns "timeout" or "idle".
func (r *Report) Outcome() string {
	if r.TimedOut {
		return "timeout"
	}
	return "idle"
}

// Print writes the report to w.
func (r *Report) Print(w io.Writer) error {
	pw := &printer{w: w}
	pw.printf("=== Simulation Report ===\n")
	pw.printf("Run ID               : %s\n", r.RunID)
	if r.Name != "" {
		pw.printf("Run                  : %s\n", r.Name)
	}
	pw.printf("Outcome              : %s\n", r.Outcome())
	pw.printf("Ticks                : %d\n", r.Snapshot.Tick)
	pw.printf("Simulated Time       : %.2f s\n", r.Elapsed)
	pw.printf("Processes            : %d\n", len(r.Snapshot.Processes))
	if r.Rejected > 0 {
		pw.printf("Rejected Submissions : %d\n", r.Rejected)
	}

	counts := r.Snapshot.CountByState()
	states := make([]string, 0, len(counts))
	for s := range counts {
		states = append(states, string(s))
	}
	sort.Strings(states)
	for _, s := range states {
		pw.printf("  %-19s: %d\n", s, counts[sim.ProcessState(s)])
	}

	for _, res := range r.Snapshot.Resources {
		pw.printf("Resource %-12s: %d/%d used (%.1f%%)\n", res.Kind, res.Used, res.Capacity, res.Utilization*100)
	}

	if r.Trace != nil {
		pw.printf("=== Decision Trace ===\n")
		pw.printf("Decisions            : %d\n", r.Trace.TotalDecisions)
		pw.printf("Granted              : %d\n", r.Trace.GrantedCount)
		pw.printf("Denied               : %d\n", r.Trace.DeniedCount)
		pw.printf("Distinct Runners     : %d\n", r.Trace.UniqueRunners)
	}
	return pw.err
}

// printer remembers the first write error so Print can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
