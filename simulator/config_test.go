package simulator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_TwoStationIsValid(t *testing.T) {
	config := TwoStationConfig()
	require.NoError(t, config.Validate())
}

func TestConfig_ValidateBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *SimConfig)
		kind   error
	}{
		{"no stations", func(c *SimConfig) { c.Stations = nil }, ErrTopology},
		{"zero processing time", func(c *SimConfig) { c.Stations[0].ProcessingTime = 0 }, ErrParameterBounds},
		{"processing time above bound", func(c *SimConfig) { c.Stations[0].ProcessingTime = 10.5 }, ErrParameterBounds},
		{"zero max workers", func(c *SimConfig) { c.Stations[1].MaxWorkers = 0 }, ErrParameterBounds},
		{"empty station name", func(c *SimConfig) { c.Stations[1].Name = "" }, ErrParameterBounds},
		{"duplicate station", func(c *SimConfig) { c.Stations[1].Name = "A" }, ErrTopology},
		{"unknown link source", func(c *SimConfig) { c.Links[0].From = "X" }, ErrTopology},
		{"unknown link target", func(c *SimConfig) { c.Links[0].To = "X" }, ErrTopology},
		{"zero workers", func(c *SimConfig) { c.Seed.TotalWorkers = 0 }, ErrParameterBounds},
		{"too many workers", func(c *SimConfig) { c.Seed.TotalWorkers = 41 }, ErrParameterBounds},
		{"zero items", func(c *SimConfig) { c.Seed.ItemCount = 0 }, ErrParameterBounds},
		{"too many items", func(c *SimConfig) { c.Seed.ItemCount = 2001 }, ErrParameterBounds},
		{"unknown initial station", func(c *SimConfig) { c.Seed.InitialStation = "Z" }, ErrTopology},
		{"too many stations", func(c *SimConfig) { c.Limits.MaxStations = 1 }, ErrTopology},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := TwoStationConfig()
			tc.mutate(&config)
			err := config.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.kind), "expected %v, got %v", tc.kind, err)

			_, err = NewSimulator(config)
			require.Error(t, err, "NewSimulator must reject what Validate rejects")
		})
	}
}

func TestConfig_ZeroLimitsUseDefaults(t *testing.T) {
	config := TwoStationConfig()
	config.Limits = Limits{}
	config.Seed.TotalWorkers = DefaultMaxTotalWorkers
	config.Seed.ItemCount = DefaultMaxItems
	require.NoError(t, config.Validate())

	config.Seed.TotalWorkers = DefaultMaxTotalWorkers + 1
	require.ErrorIs(t, config.Validate(), ErrParameterBounds)
}

func TestConfig_CustomLimits(t *testing.T) {
	config := TwoStationConfig()
	config.Limits.MaxProcessingTime = 30
	config.Stations[1].ProcessingTime = 25
	require.NoError(t, config.Validate())

	sim, err := NewSimulator(config)
	require.NoError(t, err)
	sim.Run()
	require.True(t, sim.IsComplete())
}

func TestConfig_NewSimulatorRejectsCycle(t *testing.T) {
	config := DefaultConfig()
	config.Stations = []StationConfig{
		{Name: "A", ProcessingTime: 1, MaxWorkers: 1},
		{Name: "B", ProcessingTime: 1, MaxWorkers: 1},
		{Name: "C", ProcessingTime: 1, MaxWorkers: 1},
	}
	config.Links = []LinkConfig{{"A", "B"}, {"B", "C"}, {"C", "A"}}
	config.Seed = SeedConfig{TotalWorkers: 3, InitialStation: "A", ItemCount: 5}

	require.NoError(t, config.Validate(), "bounds are fine; the graph is not")
	_, err := NewSimulator(config)
	require.ErrorIs(t, err, ErrCycle)
}

func TestConfig_JSONRoundTrip(t *testing.T) {
	data := []byte(`{
		"stations": [
			{"name": "cut", "processingTime": 1.5, "maxWorkers": 2},
			{"name": "pack", "processingTime": 1, "maxWorkers": 1}
		],
		"links": [{"from": "cut", "to": "pack"}],
		"seed": {"totalWorkers": 3, "initialStation": "cut", "itemCount": 12}
	}`)

	var config SimConfig
	require.NoError(t, json.Unmarshal(data, &config))
	require.NoError(t, config.Validate())
	require.Equal(t, 1.5, config.Stations[0].ProcessingTime)
	require.Equal(t, "pack", config.Links[0].To)
	require.Equal(t, 12, config.Seed.ItemCount)
}

// Given: a document that tries to widen its own bounds
// Then: the limits block is ignored and the stock bounds reject it
func TestConfig_DocumentCannotLoosenLimits(t *testing.T) {
	data := []byte(`{
		"stations": [
			{"name": "A", "processingTime": 1000, "maxWorkers": 1000},
			{"name": "B", "processingTime": 1, "maxWorkers": 1}
		],
		"links": [{"from": "A", "to": "B"}],
		"seed": {"totalWorkers": 1000, "initialStation": "A", "itemCount": 50000},
		"limits": {"maxProcessingTime": 1e9, "maxTotalWorkers": 1000000, "maxItems": 100000000}
	}`)

	var config SimConfig
	require.NoError(t, json.Unmarshal(data, &config))
	require.Equal(t, Limits{}, config.Limits)
	require.ErrorIs(t, config.Validate(), ErrParameterBounds)

	_, err := NewSimulator(config)
	require.ErrorIs(t, err, ErrParameterBounds)
}
