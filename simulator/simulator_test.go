package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Given: A (t=2, cap 1, initial) -> B (t=3, cap 1), one item, budget 2
// When: the line runs to completion
// Then: A admits at 0 and completes at 2; B's backlog is empty when workers
// are allocated at tick 2, so B admits at 3 and completes at 6
func TestSimulator_TwoStationScenario(t *testing.T) {
	sim, err := NewSimulator(TwoStationConfig())
	require.NoError(t, err)

	sim.Run()

	require.True(t, sim.IsComplete())
	require.Equal(t, 6, sim.Tick())
	require.Equal(t, 7, sim.ElapsedTicks())

	a, ok := sim.Station("A")
	require.True(t, ok)
	b, ok := sim.Station("B")
	require.True(t, ok)
	require.Equal(t, 1, a.TotalCompleted())
	require.Equal(t, 1, b.TotalCompleted())
	require.True(t, a.IsInitial())
	require.True(t, b.IsTerminal())

	// Tick 0: only A has backlog, so it gets the single worker it can use
	tick0 := sim.EventLog().ForTick(0)
	require.Len(t, tick0, 2)
	require.Equal(t, "A", tick0[0].Station())
	require.Equal(t, 1, tick0[0].Workers())
	require.Equal(t, 0, tick0[0].Backlog())
	require.Equal(t, 0, tick0[1].Workers())

	// Tick 2: A completes and hands off; B was allocated before the handoff
	tick2 := sim.EventLog().ForTick(2)
	require.Equal(t, 0, tick2[1].Workers())
	require.Equal(t, 1, tick2[1].Backlog())

	// Tick 3: B is granted a worker and admits the item
	tick3 := sim.EventLog().ForTick(3)
	require.Equal(t, 1, tick3[1].Workers())
	require.Equal(t, 0, tick3[1].Backlog())
}

// Given: A -> {B, C}, all t=1 cap 1, four items at A, ample workers
// Then: round-robin splits A's output 2/2
func TestSimulator_BranchingSplitsEvenly(t *testing.T) {
	config := DefaultConfig()
	config.Stations = []StationConfig{
		{Name: "A", ProcessingTime: 1, MaxWorkers: 1},
		{Name: "B", ProcessingTime: 1, MaxWorkers: 1},
		{Name: "C", ProcessingTime: 1, MaxWorkers: 1},
		{Name: "D", ProcessingTime: 1, MaxWorkers: 2},
	}
	config.Links = []LinkConfig{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}}
	config.Seed = SeedConfig{TotalWorkers: 10, InitialStation: "A", ItemCount: 4}

	sim, err := NewSimulator(config)
	require.NoError(t, err)
	sim.Run()

	stats := sim.Stats()
	require.Equal(t, 4, stats[0].TotalCompleted)
	require.Equal(t, 2, stats[1].TotalCompleted)
	require.Equal(t, 2, stats[2].TotalCompleted)
	require.Equal(t, 4, stats[3].TotalCompleted)
}

// Four-station diamond with mixed durations, ten items, six workers
func TestSimulator_DiamondLine(t *testing.T) {
	c1 := mustStation(t, "Center 1", 2.0, 2)
	c2 := mustStation(t, "Center 2", 1.5, 1)
	c3 := mustStation(t, "Center 3", 1.0, 2)
	c4 := mustStation(t, "Center 4", 2.0, 1)
	c1.SetInitial(true)
	c1.AddNext(c2)
	c1.AddNext(c3)
	c2.AddNext(c4)
	c3.AddNext(c4)
	for i := 0; i < 10; i++ {
		c1.Enqueue(Item{ID: i})
	}

	sim, err := NewSimulatorFromStations([]*Station{c1, c2, c3, c4}, 6)
	require.NoError(t, err)
	sim.Run()

	for _, st := range sim.Stations() {
		require.Equal(t, 0, st.BacklogLen(), st.Name())
		require.Equal(t, 0, st.InProcessLen(), st.Name())
	}
	require.Equal(t, 10, c1.TotalCompleted())
	require.Equal(t, 5, c2.TotalCompleted())
	require.Equal(t, 5, c3.TotalCompleted())
	require.Equal(t, 10, c4.TotalCompleted())
}

func TestSimulator_OneEventPerStationPerTick(t *testing.T) {
	sim, err := NewSimulator(TwoStationConfig())
	require.NoError(t, err)
	sim.Run()

	events := sim.Events()
	require.Len(t, events, sim.ElapsedTicks()*2)
	for i, e := range events {
		require.Equal(t, i/2, e.Tick(), "ticks are logged in order")
		require.Equal(t, []string{"A", "B"}[i%2], e.Station(), "stations are logged in registration order")
	}
}

func TestSimulator_StepAfterCompleteIsNoop(t *testing.T) {
	sim, err := NewSimulator(TwoStationConfig())
	require.NoError(t, err)
	sim.Run()

	tick := sim.Tick()
	events := sim.EventLog().Len()
	sim.Step()
	require.Equal(t, tick, sim.Tick())
	require.Equal(t, events, sim.EventLog().Len())
}

func TestSimulator_StepAdvancesClock(t *testing.T) {
	sim, err := NewSimulator(TwoStationConfig())
	require.NoError(t, err)
	require.Equal(t, 0, sim.Tick())
	require.Equal(t, 0, sim.ElapsedTicks())

	sim.Step()
	require.Equal(t, 1, sim.Tick())
	require.Equal(t, 1, sim.ElapsedTicks())
	require.False(t, sim.IsComplete())
}

func TestSimulator_Metrics(t *testing.T) {
	sim, err := NewSimulator(TwoStationConfig())
	require.NoError(t, err)
	sim.Run()

	m := sim.Metrics()
	require.True(t, m.IsComplete)
	require.Equal(t, 6, m.Tick)
	require.Equal(t, 7, m.ElapsedTicks)
	require.Equal(t, 2, m.TotalWorkers)
	require.Equal(t, 1, m.ItemsSeeded)
	require.Equal(t, 1, m.ItemsCompleted)
	require.Equal(t, 1, m.PeakWorkersInUse)
	require.InDelta(t, 2.0/7.0, m.AverageWorkersInUse, 1e-9) // A at tick 0, B at tick 3
	require.InDelta(t, 1.0/7.0, m.BudgetUtilization, 1e-9)
	require.Len(t, m.Stations, 2)
	require.InDelta(t, 1.0/7.0, m.Stations[0].Utilization, 1e-9)

	// Snapshots are independent of later mutation
	m.Stations[0].TotalCompleted = 99
	require.Equal(t, 1, sim.Metrics().Stations[0].TotalCompleted)
}

func TestSimulator_ConstructorRejectsBadBudget(t *testing.T) {
	for _, workers := range []int{0, -1, DefaultMaxTotalWorkers + 1} {
		a := mustStation(t, "A", 1, 1)
		b := mustStation(t, "B", 1, 1)
		a.SetInitial(true)
		a.AddNext(b)
		a.Enqueue(Item{ID: 0})

		_, err := NewSimulatorFromStations([]*Station{a, b}, workers)
		require.ErrorIs(t, err, ErrParameterBounds, "workers=%d", workers)
	}
}

func TestSimulator_ConstructorRejectsEmptyBatch(t *testing.T) {
	a := mustStation(t, "A", 1, 1)
	b := mustStation(t, "B", 1, 1)
	a.SetInitial(true)
	a.AddNext(b)

	_, err := NewSimulatorFromStations([]*Station{a, b}, 2)
	require.ErrorIs(t, err, ErrParameterBounds)
}

func TestSimulator_ConstructorRejectsLongProcessingTime(t *testing.T) {
	a := mustStation(t, "A", 11, 1)
	b := mustStation(t, "B", 1, 1)
	a.SetInitial(true)
	a.AddNext(b)
	a.Enqueue(Item{ID: 0})

	_, err := NewSimulatorFromStations([]*Station{a, b}, 2)
	require.ErrorIs(t, err, ErrParameterBounds)
}

func TestSimulator_LogsCompletion(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	sim, err := NewSimulator(TwoStationConfig())
	require.NoError(t, err)
	sim.SetLogger(zap.New(core))
	sim.Run()

	require.Equal(t, 2, logs.FilterMessage("item completed").Len())
	done := logs.FilterMessage("line complete").All()
	require.Len(t, done, 1)
	require.Equal(t, int64(6), done[0].ContextMap()["tick"])
	require.Equal(t, "simulator", done[0].ContextMap()["component"])
}

func TestSimulator_NilLoggerDiscards(t *testing.T) {
	sim, err := NewSimulator(TwoStationConfig())
	require.NoError(t, err)
	sim.SetLogger(nil)
	require.NotPanics(t, sim.Run)
	require.True(t, sim.IsComplete())
}
