package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions int
	GrantedCount   int
	DeniedCount    int
	UniqueRunners  int
	RunsPerPID     map[int64]int // process ID → ticks granted
	DenialsPerPID  map[int64]int // process ID → ticks denied
	CauseCounts    map[string]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RunsPerPID:    make(map[int64]int),
		DenialsPerPID: make(map[int64]int),
		CauseCounts:   make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Decisions)
	for _, d := range st.Decisions {
		if d.Granted {
			summary.GrantedCount++
			summary.RunsPerPID[d.PID]++
		} else {
			summary.DeniedCount++
			summary.DenialsPerPID[d.PID]++
		}
	}
	for _, t := range st.Transitions {
		summary.CauseCounts[t.Cause]++
	}

	summary.UniqueRunners = len(summary.RunsPerPID)

	return summary
}
