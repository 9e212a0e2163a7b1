package simulator

// StationStats is a read-only snapshot of one station's running statistics
type StationStats struct {
	Name           string  `json:"name"`
	ProcessingTime float64 `json:"processingTime"`
	MaxWorkers     int     `json:"maxWorkers"`
	IsInitial      bool    `json:"isInitial"`
	IsTerminal     bool    `json:"isTerminal"`

	TotalCompleted int     `json:"totalCompleted"` // Items that finished processing here
	PeakBacklog    int     `json:"peakBacklog"`    // Largest backlog observed at the start of a tick
	ActiveTicks    int     `json:"activeTicks"`    // Ticks with at least one assigned worker
	Utilization    float64 `json:"utilization"`    // activeTicks / elapsed ticks (0.0 - 1.0)

	Workers   int `json:"workers"`   // Workers assigned for the latest tick
	Backlog   int `json:"backlog"`   // Items waiting right now
	InProcess int `json:"inProcess"` // Items being worked on right now
}

// Metrics tracks line-level statistics across ticks
type Metrics struct {
	Tick         int  `json:"tick"`         // Current (or final) tick
	ElapsedTicks int  `json:"elapsedTicks"` // Ticks executed so far
	IsComplete   bool `json:"isComplete"`   // Whether every station has drained

	TotalWorkers   int `json:"totalWorkers"`   // Worker budget
	ItemsSeeded    int `json:"itemsSeeded"`    // Items present when the line was built
	ItemsCompleted int `json:"itemsCompleted"` // Items that left the terminal station

	PeakWorkersInUse    int     `json:"peakWorkersInUse"`    // Largest per-tick allocation
	AverageWorkersInUse float64 `json:"averageWorkersInUse"` // Mean per-tick allocation
	BudgetUtilization   float64 `json:"budgetUtilization"`   // AverageWorkersInUse / TotalWorkers

	Stations []StationStats `json:"stations"`

	// Internal tracking
	workerTicks int // Sum of per-tick allocations
}

// NewMetrics creates a new metrics tracker
func NewMetrics(totalWorkers, itemsSeeded int) *Metrics {
	return &Metrics{
		TotalWorkers: totalWorkers,
		ItemsSeeded:  itemsSeeded,
		Stations:     make([]StationStats, 0),
	}
}

// RecordTick folds one tick's allocation into the running averages
func (m *Metrics) RecordTick(tick, workersInUse int) {
	m.Tick = tick
	m.ElapsedTicks = tick + 1
	m.workerTicks += workersInUse
	m.PeakWorkersInUse = max(m.PeakWorkersInUse, workersInUse)
	m.AverageWorkersInUse = float64(m.workerTicks) / float64(m.ElapsedTicks)
	if m.TotalWorkers > 0 {
		m.BudgetUtilization = m.AverageWorkersInUse / float64(m.TotalWorkers)
	}
}

// Clone creates a deep copy of the metrics so callers can hold a snapshot
// while the simulation keeps running
func (m *Metrics) Clone() *Metrics {
	clone := *m
	clone.Stations = make([]StationStats, len(m.Stations))
	copy(clone.Stations, m.Stations)
	return &clone
}
