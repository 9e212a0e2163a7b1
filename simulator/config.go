package simulator

import (
	"fmt"
	"math"
)

// Sanity bounds applied when a config does not override them.
const (
	DefaultMaxProcessingTime = 10.0 // Longest processing time a station may declare
	DefaultMaxTotalWorkers   = 40   // Largest worker budget for a line
	DefaultMaxItems          = 2000 // Largest seeded batch
	DefaultMaxStations       = 20   // Most stations in one line
)

// StationConfig describes one station record from the topology source.
type StationConfig struct {
	Name           string  `json:"name" yaml:"name"`                     // Unique station key
	ProcessingTime float64 `json:"processingTime" yaml:"processingTime"` // Ticks of residency per item (0, MaxProcessingTime]
	MaxWorkers     int     `json:"maxWorkers" yaml:"maxWorkers"`         // Worker capacity (> 0)
}

// LinkConfig is a directed edge from one station to a downstream station.
type LinkConfig struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// SeedConfig holds the initial workload: the worker budget, the station that
// receives the batch, and how many items to create.
type SeedConfig struct {
	TotalWorkers   int    `json:"totalWorkers" yaml:"totalWorkers"`
	InitialStation string `json:"initialStation" yaml:"initialStation"`
	ItemCount      int    `json:"itemCount" yaml:"itemCount"`
}

// Limits bounds configuration values. Zero fields fall back to the defaults.
type Limits struct {
	MaxProcessingTime float64 `json:"maxProcessingTime,omitempty" yaml:"maxProcessingTime,omitempty"`
	MaxTotalWorkers   int     `json:"maxTotalWorkers,omitempty" yaml:"maxTotalWorkers,omitempty"`
	MaxItems          int     `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	MaxStations       int     `json:"maxStations,omitempty" yaml:"maxStations,omitempty"`
}

// DefaultLimits returns the stock sanity bounds
func DefaultLimits() Limits {
	return Limits{
		MaxProcessingTime: DefaultMaxProcessingTime,
		MaxTotalWorkers:   DefaultMaxTotalWorkers,
		MaxItems:          DefaultMaxItems,
		MaxStations:       DefaultMaxStations,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxProcessingTime <= 0 {
		l.MaxProcessingTime = d.MaxProcessingTime
	}
	if l.MaxTotalWorkers <= 0 {
		l.MaxTotalWorkers = d.MaxTotalWorkers
	}
	if l.MaxItems <= 0 {
		l.MaxItems = d.MaxItems
	}
	if l.MaxStations <= 0 {
		l.MaxStations = d.MaxStations
	}
	return l
}

// SimConfig holds everything needed to build a production line
type SimConfig struct {
	Stations []StationConfig `json:"stations" yaml:"stations"`
	Links    []LinkConfig    `json:"links" yaml:"links"`
	Seed     SeedConfig      `json:"seed" yaml:"seed"`
	// Limits bound the values above. They are never read from the config
	// document itself; callers set them from trusted flags.
	Limits Limits `json:"-" yaml:"-"`
}

// DefaultConfig returns an empty line with the stock limits
func DefaultConfig() SimConfig {
	return SimConfig{
		Stations: make([]StationConfig, 0),
		Links:    make([]LinkConfig, 0),
		Limits:   DefaultLimits(),
	}
}

// TwoStationConfig returns a minimal A -> B line for experiments and tests
func TwoStationConfig() SimConfig {
	return SimConfig{
		Stations: []StationConfig{
			{Name: "A", ProcessingTime: 2, MaxWorkers: 1},
			{Name: "B", ProcessingTime: 3, MaxWorkers: 1},
		},
		Links: []LinkConfig{{From: "A", To: "B"}},
		Seed: SeedConfig{
			TotalWorkers:   2,
			InitialStation: "A",
			ItemCount:      1,
		},
		Limits: DefaultLimits(),
	}
}

// Validate checks parameter bounds and name references. Graph structure
// (initial/terminal counts, cycles) is checked by ValidateGraph when the
// simulator is built.
func (c *SimConfig) Validate() error {
	limits := c.Limits.withDefaults()

	if len(c.Stations) == 0 {
		return ErrInvalidTopology("at least one station is required")
	}
	if len(c.Stations) > limits.MaxStations {
		return ErrInvalidTopology(fmt.Sprintf("at most %d stations are supported, got %d", limits.MaxStations, len(c.Stations)))
	}

	names := make(map[string]bool, len(c.Stations))
	for _, sc := range c.Stations {
		if sc.Name == "" {
			return ErrInvalidConfig("station name must not be empty")
		}
		if names[sc.Name] {
			return ErrInvalidTopology(fmt.Sprintf("duplicate station name %q", sc.Name))
		}
		names[sc.Name] = true

		if math.IsNaN(sc.ProcessingTime) || sc.ProcessingTime <= 0 || sc.ProcessingTime > limits.MaxProcessingTime {
			return ErrInvalidConfig(fmt.Sprintf("station %q: processingTime must be between 0 (exclusive) and %v, got %v",
				sc.Name, limits.MaxProcessingTime, sc.ProcessingTime))
		}
		if sc.MaxWorkers <= 0 {
			return ErrInvalidConfig(fmt.Sprintf("station %q: maxWorkers must be > 0, got %d", sc.Name, sc.MaxWorkers))
		}
	}

	for _, lc := range c.Links {
		if !names[lc.From] {
			return ErrInvalidTopology(fmt.Sprintf("link references unknown station %q", lc.From))
		}
		if !names[lc.To] {
			return ErrInvalidTopology(fmt.Sprintf("link references unknown station %q", lc.To))
		}
	}

	if c.Seed.TotalWorkers <= 0 || c.Seed.TotalWorkers > limits.MaxTotalWorkers {
		return ErrInvalidConfig(fmt.Sprintf("totalWorkers must be between 1 and %d, got %d", limits.MaxTotalWorkers, c.Seed.TotalWorkers))
	}
	if c.Seed.ItemCount <= 0 || c.Seed.ItemCount > limits.MaxItems {
		return ErrInvalidConfig(fmt.Sprintf("itemCount must be between 1 and %d, got %d", limits.MaxItems, c.Seed.ItemCount))
	}
	if !names[c.Seed.InitialStation] {
		return ErrInvalidTopology(fmt.Sprintf("initial station %q is not defined", c.Seed.InitialStation))
	}
	return nil
}
