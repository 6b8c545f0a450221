// Package trace provides decision-trace recording for scheduler analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// DecisionRecord captures a single scheduling decision for one candidate.
type DecisionRecord struct {
	PID     int64
	Tick    int64
	Granted bool
	Reason  string
}

// TransitionRecord captures a single lifecycle transition.
type TransitionRecord struct {
	PID   int64
	Tick  int64
	From  string
	To    string
	Cause string // event type that caused the transition (e.g. "preempted", "killed")
}
