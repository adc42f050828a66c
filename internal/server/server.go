// Package server provides the HTTP server of the formcheck application.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/middleware"
	"github.com/ayusman/formcheck/internal/server/api"
	"github.com/ayusman/formcheck/internal/store"
)

// Config holds the server configuration.
// Routes backed by a nil dependency are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Metrics   *metrics.Manager
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// Server represents the HTTP server for the formcheck application.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time

	mu         sync.Mutex
	httpServer *http.Server

	// closing ends the feedback sockets and MJPEG streams, which
	// http.Server.Shutdown would otherwise wait on.
	closing   chan struct{}
	closeOnce sync.Once
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Metrics == nil {
		config.Metrics = metrics.NewManager("formcheck", "server", prometheus.NewRegistry())
	}

	s := &Server{
		config:  config,
		start:   time.Now(),
		closing: make(chan struct{}),
	}
	s.router = s.routerSetup()
	return s
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")

	api.NewExercisesHandler().SetupRoutes(r)
	api.NewEvaluateHandler().SetupRoutes(r)

	if s.config.Store != nil {
		api.NewSessionsHandler(s.config.Store).SetupRoutes(r)
	}

	if s.config.App != nil {
		api.NewTrackingHandler(s.config.App).SetupRoutes(r)
		r.Handle("/api/feedback", NewFeedbackHandler(s.config.App, s.config.Metrics, s.closing)).Methods("GET")
		r.Handle("/api/stream", NewStreamHandler(s.config.App, s.closing)).Methods("GET")
	}

	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	if s.config.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir))).Methods("GET", "HEAD")
	}

	r.Use(middleware.Recover(s.config.Metrics))
	r.Use(middleware.LogRequests())
	r.Use(middleware.RequestMetrics(s.config.Metrics))
	r.Use(middleware.DrainBody(middleware.DefaultDrainLimit))

	return r
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{Status: "ok", Uptime: time.Since(s.start).Round(time.Second).String()}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("write health response: %s", err)
	}
}

// ListenAndServe serves HTTP on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	// No write timeout: the feedback socket and the MJPEG stream are long lived.
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Infof(" > server listening on: [%s]", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends the long-lived feedback and stream responses, then gracefully
// stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
