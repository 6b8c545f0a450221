package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures grant/deny decisions only.
	TraceLevelDecisions TraceLevel = "decisions"
	// TraceLevelTransitions captures decisions and every lifecycle transition.
	TraceLevelTransitions TraceLevel = "transitions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelDecisions:   true,
	TraceLevelTransitions: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Enabled reports whether the level records anything.
func (l TraceLevel) Enabled() bool {
	return l != TraceLevelNone && l != ""
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a simulation run.
type SimulationTrace struct {
	Config      TraceConfig
	Decisions   []DecisionRecord
	Transitions []TransitionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Decisions:   make([]DecisionRecord, 0),
		Transitions: make([]TransitionRecord, 0),
	}
}

// RecordDecision appends a scheduling decision record.
func (st *SimulationTrace) RecordDecision(record DecisionRecord) {
	if !st.Config.Level.Enabled() {
		return
	}
	st.Decisions = append(st.Decisions, record)
}

// RecordTransition appends a lifecycle transition record.
// Only kept at TraceLevelTransitions.
func (st *SimulationTrace) RecordTransition(record TransitionRecord) {
	if st.Config.Level != TraceLevelTransitions {
		return
	}
	st.Transitions = append(st.Transitions, record)
}
