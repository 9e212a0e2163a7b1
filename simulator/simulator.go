package simulator

import (
	"fmt"

	"github.com/miretskiy/linesim/internal/logging"
	"go.uber.org/zap"
)

// Simulator is a PURE tick-stepped simulator with NO concurrency primitives.
// All state is accessed single-threaded via the Step() method.
// The caller (cmd/sim_runner, cmd/server) manages pacing and output.
type Simulator struct {
	stations     []*Station          // Registration order; fixes advance and tie-break order
	byName       map[string]*Station // Lookup by unique station name
	totalWorkers int                 // Worker budget shared by all stations each tick
	tick         int                 // Current tick; advances by 1 per iteration until complete
	complete     bool                // Every backlog and in-process set is empty
	events       *EventLog           // One event per station per executed tick
	metrics      *Metrics            // Line-level running statistics
	logger       *zap.Logger
}

// NewSimulator builds a line from a config: stations, links, the initial
// station flag and the seeded batch. It returns a configuration error if any
// bound is violated or the graph is malformed.
func NewSimulator(config SimConfig) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stations := make([]*Station, 0, len(config.Stations))
	byName := make(map[string]*Station, len(config.Stations))
	for _, sc := range config.Stations {
		st, err := NewStation(sc.Name, sc.ProcessingTime, sc.MaxWorkers)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
		byName[sc.Name] = st
	}

	for _, lc := range config.Links {
		byName[lc.From].AddNext(byName[lc.To])
	}

	initial := byName[config.Seed.InitialStation]
	initial.SetInitial(true)
	for i := 0; i < config.Seed.ItemCount; i++ {
		initial.Enqueue(Item{ID: i})
	}

	return newSimulator(stations, config.Seed.TotalWorkers, config.Limits.withDefaults())
}

// NewSimulatorFromStations builds a line from stations that were already
// created, linked and seeded by the caller. Default limits apply.
func NewSimulatorFromStations(stations []*Station, totalWorkers int) (*Simulator, error) {
	return newSimulator(stations, totalWorkers, DefaultLimits())
}

func newSimulator(stations []*Station, totalWorkers int, limits Limits) (*Simulator, error) {
	if totalWorkers <= 0 || totalWorkers > limits.MaxTotalWorkers {
		return nil, ErrInvalidConfig(fmt.Sprintf("totalWorkers must be between 1 and %d, got %d", limits.MaxTotalWorkers, totalWorkers))
	}
	if len(stations) > limits.MaxStations {
		return nil, ErrInvalidTopology(fmt.Sprintf("at most %d stations are supported, got %d", limits.MaxStations, len(stations)))
	}
	for _, st := range stations {
		if st.processingTime > limits.MaxProcessingTime {
			return nil, ErrInvalidConfig(fmt.Sprintf("station %q: processingTime must be <= %v, got %v",
				st.name, limits.MaxProcessingTime, st.processingTime))
		}
	}

	if err := ValidateGraph(stations); err != nil {
		return nil, err
	}

	items := 0
	for _, st := range stations {
		items += st.BacklogLen() + st.InProcessLen()
	}
	if items <= 0 || items > limits.MaxItems {
		return nil, ErrInvalidConfig(fmt.Sprintf("itemCount must be between 1 and %d, got %d", limits.MaxItems, items))
	}

	byName := make(map[string]*Station, len(stations))
	for _, st := range stations {
		byName[st.name] = st
	}

	sim := &Simulator{
		stations:     append([]*Station(nil), stations...),
		byName:       byName,
		totalWorkers: totalWorkers,
		tick:         0,
		complete:     false,
		events:       NewEventLog(),
		metrics:      NewMetrics(totalWorkers, items),
	}
	sim.SetLogger(logging.NewNop())
	return sim, nil
}

// SetLogger replaces the simulator's logger. Stations log through it too.
func (s *Simulator) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	s.logger = logger.With(zap.String("component", "simulator"))
	for _, st := range s.stations {
		st.logger = s.logger
	}
}

// Step runs one tick: allocate workers, advance every station in
// registration order, record one event per station, then check for
// completion. The clock advances only if the line is still running.
// Step is a no-op once the line is complete.
func (s *Simulator) Step() {
	if s.complete {
		return
	}

	granted := allocateWorkers(s.stations, s.totalWorkers)
	s.logger.Debug("workers allocated",
		zap.Int("tick", s.tick),
		zap.Int("granted", granted),
		zap.Int("budget", s.totalWorkers))

	for _, st := range s.stations {
		st.Advance(s.tick)
	}

	for _, st := range s.stations {
		s.events.Append(NewEvent(s.tick, st.name, st.currentWorkers, st.BacklogLen()))
	}
	s.metrics.RecordTick(s.tick, granted)

	if s.isDrained() {
		s.complete = true
		s.logger.Info("line complete",
			zap.Int("tick", s.tick),
			zap.Int("itemsCompleted", s.itemsCompleted()),
			zap.Int("events", s.events.Len()))
		return
	}
	s.tick++
}

// Run steps until the line is complete. Validated lines always terminate.
func (s *Simulator) Run() {
	for !s.complete {
		s.Step()
	}
}

func (s *Simulator) isDrained() bool {
	for _, st := range s.stations {
		if !st.idle() {
			return false
		}
	}
	return true
}

func (s *Simulator) itemsCompleted() int {
	for _, st := range s.stations {
		if st.isTerminal {
			return st.totalCompleted
		}
	}
	return 0
}

// IsComplete returns true once every station has drained
func (s *Simulator) IsComplete() bool {
	return s.complete
}

// Tick returns the current tick; after completion it is the final tick
func (s *Simulator) Tick() int {
	return s.tick
}

// ElapsedTicks returns the number of ticks executed so far
func (s *Simulator) ElapsedTicks() int {
	return s.metrics.ElapsedTicks
}

// TotalWorkers returns the worker budget
func (s *Simulator) TotalWorkers() int {
	return s.totalWorkers
}

// Events returns a copy of the event log in append order
func (s *Simulator) Events() []Event {
	return s.events.Events()
}

// EventLog returns the live event log for filtered reads
func (s *Simulator) EventLog() *EventLog {
	return s.events
}

// Stations returns the stations in registration order
func (s *Simulator) Stations() []*Station {
	return append([]*Station(nil), s.stations...)
}

// Station looks up a station by name
func (s *Simulator) Station(name string) (*Station, bool) {
	st, ok := s.byName[name]
	return st, ok
}

// Stats returns a statistics snapshot per station in registration order
func (s *Simulator) Stats() []StationStats {
	elapsed := s.metrics.ElapsedTicks
	stats := make([]StationStats, 0, len(s.stations))
	for _, st := range s.stations {
		stats = append(stats, st.Stats(elapsed))
	}
	return stats
}

// Metrics returns a snapshot of line-level metrics including per-station stats
func (s *Simulator) Metrics() *Metrics {
	m := s.metrics.Clone()
	m.Tick = s.tick
	m.IsComplete = s.complete
	m.ItemsCompleted = s.itemsCompleted()
	m.Stations = s.Stats()
	return m
}
