package sim

import "github.com/bioos/bioos-sim/sim/trace"

// AttachTrace records kernel events into st. A nil trace or
// TraceLevelNone attaches nothing.
func (k *Kernel) AttachTrace(st *trace.SimulationTrace) {
	if st == nil || !st.Config.Level.Enabled() {
		return
	}
	k.Subscribe(func(ev Event) {
		switch ev.Type {
		case EventPressure:
			return
		case EventScheduled:
			st.RecordDecision(trace.DecisionRecord{PID: int64(ev.PID), Tick: ev.Tick, Granted: true, Reason: ev.Reason})
		case EventDenied:
			st.RecordDecision(trace.DecisionRecord{PID: int64(ev.PID), Tick: ev.Tick, Granted: false, Reason: ev.Reason})
			return
		}
		st.RecordTransition(trace.TransitionRecord{
			PID:   int64(ev.PID),
			Tick:  ev.Tick,
			From:  string(ev.From),
			To:    string(ev.To),
			Cause: string(ev.Type),
		})
	})
}
