package simulator

import (
	"encoding/json"
	"fmt"
)

// Event is an immutable snapshot of one station at the end of one tick.
type Event struct {
	tick    int
	station string
	workers int
	backlog int
}

func NewEvent(tick int, station string, workers, backlog int) Event {
	return Event{
		tick:    tick,
		station: station,
		workers: workers,
		backlog: backlog,
	}
}

func (e Event) Tick() int       { return e.tick }
func (e Event) Station() string { return e.station }
func (e Event) Workers() int    { return e.workers }
func (e Event) Backlog() int    { return e.backlog }
func (e Event) String() string {
	return fmt.Sprintf("Event(t=%d, station=%s, workers=%d, backlog=%d)", e.tick, e.station, e.workers, e.backlog)
}

type eventJSON struct {
	Tick    int    `json:"tick"`
	Station string `json:"station"`
	Workers int    `json:"workers"`
	Backlog int    `json:"backlog"`
}

// MarshalJSON implements json.Marshaler for Event
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{Tick: e.tick, Station: e.station, Workers: e.workers, Backlog: e.backlog})
}

// UnmarshalJSON implements json.Unmarshaler for Event
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = NewEvent(raw.Tick, raw.Station, raw.Workers, raw.Backlog)
	return nil
}
