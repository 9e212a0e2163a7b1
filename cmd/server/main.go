package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/miretskiy/linesim/integration"
	"github.com/miretskiy/linesim/internal/logging"
	"github.com/miretskiy/linesim/simulator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// maxConfigBytes caps request bodies on /simulate
const maxConfigBytes = 1 << 20

var errMissingConfig = errors.New("load requires a config")

func unknownCommandError(kind string) error {
	return fmt.Errorf("unknown command %q", kind)
}

// server carries what every handler needs
type server struct {
	logger   *zap.Logger
	metrics  *lineMetrics
	interval time.Duration
	quit     chan struct{}
}

func newServer(logger *zap.Logger, interval time.Duration) *server {
	return &server{
		logger:   logger.With(zap.String("component", "server")),
		metrics:  newLineMetrics(),
		interval: interval,
		quit:     make(chan struct{}, 1),
	}
}

func (srv *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", srv.handleIndex)
	r.Post("/simulate", srv.handleSimulate)
	r.Get("/parameters", srv.handleParameters)
	r.Get("/ws", srv.handleWebSocket)
	r.Method(http.MethodGet, "/metrics", srv.metrics.handler())
	r.Post("/quitquitquit", srv.handleQuit)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (srv *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"POST /simulate":     "run a line config (JSON body) to completion and return the summary",
		"GET /parameters":    "list overridable parameters of the two-station line",
		"GET /ws":            "websocket session: load, start, pause, step, reset",
		"GET /metrics":       "Prometheus metrics for the most recently advanced line",
		"POST /quitquitquit": "shut the server down",
	})
}

// SimulateResponse is the body returned by POST /simulate
type SimulateResponse struct {
	Metrics *simulator.Metrics `json:"metrics"`
	Events  []simulator.Event  `json:"events,omitempty"`
}

// handleSimulate runs a posted config to completion. Add ?events=true to
// include the full event log.
func (srv *server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	config, err := integration.LoadJSON(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sim, err := simulator.NewSimulator(config)
	if err != nil {
		srv.logger.Info("rejected config", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	sim.SetLogger(srv.logger)
	sim.Run()

	metrics := sim.Metrics()
	srv.metrics.reset()
	srv.metrics.update(metrics)

	resp := SimulateResponse{Metrics: metrics}
	if r.URL.Query().Get("events") == "true" {
		resp.Events = sim.Events()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (srv *server) handleParameters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, integration.Parameters(simulator.TwoStationConfig()))
}

func (srv *server) handleQuit(w http.ResponseWriter, r *http.Request) {
	srv.logger.Info("shutdown requested via /quitquitquit")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Server shutting down...")

	select {
	case srv.quit <- struct{}{}:
	default:
	}
}

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the production line simulator over HTTP and websocket",
	Long: `server exposes POST /simulate for batch runs, a websocket at /ws that paces a line
one tick per interval, and Prometheus gauges at /metrics.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		interval, _ := cmd.Flags().GetDuration("interval")
		level, _ := cmd.Flags().GetString("log-level")

		if interval <= 0 {
			return fmt.Errorf("--interval must be positive, got %v", interval)
		}
		logger, err := logging.New(level)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, addr, newServer(logger, interval))
	},
}

func init() {
	rootCmd.Flags().String("addr", ":8080", "Listen address")
	rootCmd.Flags().Duration("interval", 500*time.Millisecond, "Wall-clock time between ticks of a running websocket session")
	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// serve runs the HTTP server until ctx is done or /quitquitquit is called
func serve(ctx context.Context, addr string, srv *server) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("server starting",
			zap.String("addr", addr),
			zap.Duration("interval", srv.interval))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case <-srv.quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	srv.logger.Info("server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
