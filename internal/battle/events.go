package battle

// defaultEventLogCap bounds the in-memory event history. The log is a
// recency-biased summary for the UI, not a durable audit trail; sinks that
// need everything subscribe a writer instead.
const defaultEventLogCap = 100

// EventLog is an append-only, bounded event history with FIFO eviction.
type EventLog struct {
	capacity int
	events   []Event
}

func newEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = defaultEventLogCap
	}
	return &EventLog{capacity: capacity}
}

// Append adds an event, evicting the oldest entries beyond capacity.
func (l *EventLog) Append(ev Event) {
	l.events = append(l.events, ev)
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0], l.events[over:]...)
	}
}

// Events returns a copy of the retained history, oldest first.
func (l *EventLog) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len reports the number of retained events.
func (l *EventLog) Len() int { return len(l.events) }
