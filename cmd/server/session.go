package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/miretskiy/linesim/simulator"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client message types
const (
	msgLoad  = "load"
	msgStart = "start"
	msgPause = "pause"
	msgStep  = "step"
	msgReset = "reset"
)

// Server message types
const (
	msgStatus   = "status"
	msgTick     = "tick"
	msgComplete = "complete"
	msgError    = "error"
)

// ClientMessage is a command sent over the websocket
type ClientMessage struct {
	Type   string               `json:"type"`
	Config *simulator.SimConfig `json:"config,omitempty"`
}

// ServerMessage is an update pushed to the client
type ServerMessage struct {
	Type    string               `json:"type"`
	Running *bool                `json:"running,omitempty"`
	Config  *simulator.SimConfig `json:"config,omitempty"`
	Tick    *int                 `json:"tick,omitempty"`
	Events  []simulator.Event    `json:"events,omitempty"`
	Metrics *simulator.Metrics   `json:"metrics,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// tickUpdate is what one advanced tick produced
type tickUpdate struct {
	tick     int
	events   []simulator.Event
	metrics  *simulator.Metrics
	complete bool
}

// simState owns one session's simulator and pacing flags
type simState struct {
	config  simulator.SimConfig
	sim     *simulator.Simulator
	running bool
	logger  *zap.Logger
	mu      sync.Mutex
	stopCh  chan struct{}
}

func newSimState(config simulator.SimConfig, logger *zap.Logger) (*simState, error) {
	sim, err := simulator.NewSimulator(config)
	if err != nil {
		return nil, err
	}
	sim.SetLogger(logger)

	return &simState{
		config:  config,
		sim:     sim,
		running: false,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// load replaces the line. The previous line is kept if the config is invalid.
func (s *simState) load(config simulator.SimConfig) error {
	sim, err := simulator.NewSimulator(config)
	if err != nil {
		return err
	}
	sim.SetLogger(s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	s.sim = sim
	s.running = false
	return nil
}

// start lets the pacing loop advance the line
func (s *simState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = !s.sim.IsComplete()
}

// pause stops the pacing loop from advancing the line
func (s *simState) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// reset rebuilds the line from its config, back at tick 0 with the seeded batch
func (s *simState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, err := simulator.NewSimulator(s.config)
	if err != nil {
		// The config was accepted once, so this cannot fail
		s.logger.Error("reset failed", zap.Error(err))
		return
	}
	sim.SetLogger(s.logger)
	s.sim = sim
	s.running = false
}

// isRunning returns true if the pacing loop should advance the line
func (s *simState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// getConfig returns the loaded configuration
func (s *simState) getConfig() simulator.SimConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// step advances the line by one tick. It returns false once the line is
// already complete.
func (s *simState) step() (tickUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sim.IsComplete() {
		return tickUpdate{}, false
	}

	tick := s.sim.Tick()
	s.sim.Step()
	update := tickUpdate{
		tick:     tick,
		events:   s.sim.EventLog().ForTick(tick),
		metrics:  s.sim.Metrics(),
		complete: s.sim.IsComplete(),
	}
	if update.complete {
		s.running = false
	}
	return update, true
}

// stop signals the pacing loop to stop
func (s *simState) stop() {
	close(s.stopCh)
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

// session serves one websocket client
type session struct {
	publishMu sync.Mutex // Orders step-and-publish between commands and the pacing loop
	conn      *safeConn
	state     *simState
	metrics   *lineMetrics
	interval  time.Duration
	logger    *zap.Logger
}

func (s *session) sendStatus() error {
	running := s.state.isRunning()
	cfg := s.state.getConfig()
	return s.conn.WriteJSON(ServerMessage{
		Type:    msgStatus,
		Running: &running,
		Config:  &cfg,
	})
}

func (s *session) sendError(err error) error {
	return s.conn.WriteJSON(ServerMessage{Type: msgError, Error: err.Error()})
}

// advance steps the line once and publishes the result. Ticks reach the
// client in order. It returns an error only when the client can no longer be
// written to.
func (s *session) advance() error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	update, ok := s.state.step()
	if !ok {
		return nil
	}
	s.metrics.update(update.metrics)

	tick := update.tick
	if err := s.conn.WriteJSON(ServerMessage{
		Type:    msgTick,
		Tick:    &tick,
		Events:  update.events,
		Metrics: update.metrics,
	}); err != nil {
		return err
	}

	if update.complete {
		s.logger.Info("line complete", zap.Int("tick", tick))
		return s.conn.WriteJSON(ServerMessage{
			Type:    msgComplete,
			Tick:    &tick,
			Metrics: update.metrics,
		})
	}
	return nil
}

// pacingLoop advances the line once per interval while it is running.
// It runs in its own goroutine until the session ends.
func (s *session) pacingLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.state.stopCh:
			s.logger.Debug("pacing loop stopping")
			return

		case <-ticker.C:
			if !s.state.isRunning() {
				continue
			}
			if err := s.advance(); err != nil {
				s.logger.Warn("error sending tick", zap.Error(err))
				return
			}
		}
	}
}

func (s *session) handle(msg ClientMessage) error {
	s.logger.Debug("received command", zap.String("type", msg.Type))
	if msg.Type != msgStep {
		// Keep status replies from overtaking a tick that is being published
		s.publishMu.Lock()
		defer s.publishMu.Unlock()
	}

	switch msg.Type {
	case msgLoad:
		if msg.Config == nil {
			return s.sendError(errMissingConfig)
		}
		if err := s.state.load(*msg.Config); err != nil {
			s.logger.Info("rejected config", zap.Error(err))
			return s.sendError(err)
		}
		s.metrics.reset()
		return s.sendStatus()

	case msgStart:
		s.state.start()
		return s.sendStatus()

	case msgPause:
		s.state.pause()
		return s.sendStatus()

	case msgStep:
		s.state.pause()
		return s.advance()

	case msgReset:
		s.state.reset()
		s.metrics.reset()
		return s.sendStatus()

	default:
		return s.sendError(unknownCommandError(msg.Type))
	}
}

func (srv *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Warn("error upgrading connection", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := srv.logger.With(zap.String("remote", r.RemoteAddr))
	logger.Info("client connected")

	// Every session starts with the two-station line until the client loads one
	state, err := newSimState(simulator.TwoStationConfig(), logger)
	if err != nil {
		logger.Error("error creating simulator", zap.Error(err))
		return
	}

	s := &session{
		conn:     &safeConn{Conn: conn},
		state:    state,
		metrics:  srv.metrics,
		interval: srv.interval,
		logger:   logger,
	}
	if err := s.sendStatus(); err != nil {
		logger.Warn("error sending status", zap.Error(err))
		return
	}

	go s.pacingLoop()
	defer state.stop()

	// Handle messages from client
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("error reading message", zap.Error(err))
			}
			break
		}
		if err := s.handle(msg); err != nil {
			logger.Warn("error writing reply", zap.Error(err))
			break
		}
	}

	logger.Info("client disconnected")
}
