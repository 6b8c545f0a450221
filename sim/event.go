package sim

// EventType classifies a lifecycle event emitted by the kernel.
type EventType string

const (
	EventSubmitted  EventType = "submitted"  // Created -> Ready
	EventScheduled  EventType = "scheduled"  // Ready -> Running, resources granted
	EventDenied     EventType = "denied"     // candidate skipped, resources not available
	EventPreempted  EventType = "preempted"  // Running -> Ready at the start of a tick
	EventBlocked    EventType = "blocked"    // Running -> Blocked, voluntary yield
	EventUnblocked  EventType = "unblocked"  // Blocked -> Ready
	EventTerminated EventType = "terminated" // Running -> Terminated, work complete
	EventKilled     EventType = "killed"     // any live state -> Terminated via Kill or Shutdown
	EventPressure   EventType = "pressure"   // a resource kind reached the utilization warning level
)

// Event is a single lifecycle record. Events are delivered synchronously,
// in the order they happen within a tick.
type Event struct {
	Tick   int64
	Type   EventType
	PID    ProcessID
	From   ProcessState // empty for EventDenied and EventPressure
	To     ProcessState // empty for EventDenied and EventPressure
	Kind   ResourceKind // set for EventPressure only; PID is 0
	Reason string
}

// EventHandler receives kernel events. Handlers MUST NOT call back into the Kernel.
type EventHandler func(Event)

// eventBus fans events out to subscribers in subscription order.
type eventBus struct {
	handlers []EventHandler
}

func (b *eventBus) subscribe(h EventHandler) {
	if h == nil {
		panic("subscribe: handler must not be nil")
	}
	b.handlers = append(b.handlers, h)
}

func (b *eventBus) emit(ev Event) {
	for _, h := range b.handlers {
		h(ev)
	}
}
