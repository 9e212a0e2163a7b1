package simulator

// EventLog is the append-only record of per-tick station snapshots.
// Ticks are non-decreasing in append order.
type EventLog struct {
	events []Event
}

// NewEventLog creates an empty event log
func NewEventLog() *EventLog {
	return &EventLog{
		events: make([]Event, 0),
	}
}

// Append adds an event to the end of the log
func (l *EventLog) Append(event Event) {
	l.events = append(l.events, event)
}

// Len returns the number of events in the log
func (l *EventLog) Len() int {
	return len(l.events)
}

// At returns the i-th event in append order
func (l *EventLog) At(i int) Event {
	return l.events[i]
}

// LastTick returns the tick of the most recent event, or -1 if the log is empty
func (l *EventLog) LastTick() int {
	if len(l.events) == 0 {
		return -1
	}
	return l.events[len(l.events)-1].Tick()
}

// Events returns all events in append order.
// Note: This returns a copy of the events slice to prevent external modification
func (l *EventLog) Events() []Event {
	events := make([]Event, len(l.events))
	copy(events, l.events)
	return events
}

// ForTick returns the events recorded at the given tick
func (l *EventLog) ForTick(tick int) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Tick() == tick {
			out = append(out, e)
		} else if e.Tick() > tick {
			break
		}
	}
	return out
}

// ForStation returns the time series of one station
func (l *EventLog) ForStation(name string) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Station() == name {
			out = append(out, e)
		}
	}
	return out
}
