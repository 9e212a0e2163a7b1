package simulator

import (
	"fmt"
	"math"

	"github.com/gammazero/deque"
	"github.com/miretskiy/linesim/internal/logging"
	"go.uber.org/zap"
)

// Station is a processing node in the line (a production center).
// It is mutated only by the Simulator driving the tick loop.
type Station struct {
	name           string
	processingTime float64 // Ticks an item must stay in process before it completes
	maxWorkers     int     // Upper bound for workers the allocator may grant
	currentWorkers int     // Workers granted for the current tick

	next       []*Station // Downstream stations in link order
	nextIndex  int        // Round-robin cursor into next
	isInitial  bool
	isTerminal bool

	backlog   deque.Deque[Item]
	inProcess []inProcessItem // Admission order

	// Statistics
	totalCompleted int
	peakBacklog    int
	activeTicks    int

	logger *zap.Logger
}

// NewStation creates a station. Processing time must be a positive finite
// number and maxWorkers must be positive.
func NewStation(name string, processingTime float64, maxWorkers int) (*Station, error) {
	if name == "" {
		return nil, ErrInvalidConfig("station name must not be empty")
	}
	if math.IsNaN(processingTime) || math.IsInf(processingTime, 0) || processingTime <= 0 {
		return nil, ErrInvalidConfig(fmt.Sprintf("station %q: processingTime must be > 0, got %v", name, processingTime))
	}
	if maxWorkers <= 0 {
		return nil, ErrInvalidConfig(fmt.Sprintf("station %q: maxWorkers must be > 0, got %d", name, maxWorkers))
	}
	return &Station{
		name:           name,
		processingTime: processingTime,
		maxWorkers:     maxWorkers,
		logger:         logging.NewNop(),
	}, nil
}

func (s *Station) Name() string            { return s.name }
func (s *Station) ProcessingTime() float64 { return s.processingTime }
func (s *Station) MaxWorkers() int         { return s.maxWorkers }
func (s *Station) CurrentWorkers() int     { return s.currentWorkers }
func (s *Station) IsInitial() bool         { return s.isInitial }
func (s *Station) IsTerminal() bool        { return s.isTerminal }
func (s *Station) BacklogLen() int         { return s.backlog.Len() }
func (s *Station) InProcessLen() int       { return len(s.inProcess) }
func (s *Station) TotalCompleted() int     { return s.totalCompleted }
func (s *Station) PeakBacklog() int        { return s.peakBacklog }
func (s *Station) ActiveTicks() int        { return s.activeTicks }

// SetInitial marks the station as the line's entry point.
func (s *Station) SetInitial(initial bool) {
	s.isInitial = initial
}

// AddNext appends a downstream link. Link order drives round-robin handoff.
func (s *Station) AddNext(next *Station) {
	s.next = append(s.next, next)
}

// Next returns a copy of the downstream links.
func (s *Station) Next() []*Station {
	out := make([]*Station, len(s.next))
	copy(out, s.next)
	return out
}

// Enqueue appends an item to the backlog tail. The backlog is unbounded.
func (s *Station) Enqueue(item Item) {
	s.backlog.PushBack(item)
}

// SetAssignedWorkers sets the worker count for the current tick.
// The allocator guarantees 0 <= n <= MaxWorkers.
func (s *Station) SetAssignedWorkers(n int) {
	s.currentWorkers = n
}

// PriorityScore ranks the station for worker allocation.
func (s *Station) PriorityScore() float64 {
	return float64(s.backlog.Len()) * s.processingTime
}

// idle reports whether the station holds no items at all.
func (s *Station) idle() bool {
	return s.backlog.Len() == 0 && len(s.inProcess) == 0
}

// Advance performs the station's state transition for one tick:
// statistics, completion pass, then admission pass. Completion is evaluated
// before admission, so an item admitted at tick T completes no earlier than
// the first tick where tick-T >= processingTime.
func (s *Station) Advance(tick int) {
	s.peakBacklog = max(s.peakBacklog, s.backlog.Len())

	if s.currentWorkers > 0 {
		s.activeTicks++
	}

	// Completion pass, in admission order
	remaining := s.inProcess[:0]
	for _, p := range s.inProcess {
		if float64(tick-p.startedAt) < s.processingTime {
			remaining = append(remaining, p)
			continue
		}
		s.totalCompleted++
		s.logger.Debug("item completed",
			zap.String("station", s.name),
			zap.Int("item", p.item.ID),
			zap.Int("tick", tick),
			zap.Int("startedAt", p.startedAt))
		if !s.isTerminal {
			s.handOff(p.item)
		}
	}
	clear(s.inProcess[len(remaining):])
	s.inProcess = remaining

	// Admission pass
	for len(s.inProcess) < s.currentWorkers && s.backlog.Len() > 0 {
		item := s.backlog.PopFront()
		s.inProcess = append(s.inProcess, inProcessItem{item: item, startedAt: tick})
	}
}

// handOff forwards a completed item to the next downstream station in
// round-robin order.
func (s *Station) handOff(item Item) {
	if len(s.next) == 0 {
		return
	}
	target := s.next[s.nextIndex]
	target.Enqueue(item)
	s.nextIndex = (s.nextIndex + 1) % len(s.next)
}

// Stats returns a snapshot of the station's statistics. elapsedTicks is the
// number of ticks the line has run and is the denominator for utilization.
func (s *Station) Stats(elapsedTicks int) StationStats {
	utilization := 0.0
	if elapsedTicks > 0 {
		utilization = float64(s.activeTicks) / float64(elapsedTicks)
	}
	return StationStats{
		Name:           s.name,
		ProcessingTime: s.processingTime,
		MaxWorkers:     s.maxWorkers,
		IsInitial:      s.isInitial,
		IsTerminal:     s.isTerminal,
		TotalCompleted: s.totalCompleted,
		PeakBacklog:    s.peakBacklog,
		ActiveTicks:    s.activeTicks,
		Utilization:    utilization,
		Workers:        s.currentWorkers,
		Backlog:        s.backlog.Len(),
		InProcess:      len(s.inProcess),
	}
}

func (s *Station) String() string {
	return fmt.Sprintf("Station(%s, t=%.1f, max=%d, workers=%d, backlog=%d, inProcess=%d)",
		s.name, s.processingTime, s.maxWorkers, s.currentWorkers, s.backlog.Len(), len(s.inProcess))
}
