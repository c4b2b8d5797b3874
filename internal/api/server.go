// Package api serves the car price model over HTTP.
//
// Routes:
//
//	GET     /                  service descriptor
//	POST    /api/predict       price one vehicle
//	GET     /api/model-info    state of the published model
//	GET     /api/health        liveness plus model status
//	GET     /api/history       recent predictions (when history is enabled)
//	GET     /api/ws/predict    websocket: one request JSON per text frame
//	GET     /metrics           Prometheus exposition (when a gatherer is set)
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"carprice/internal/ml"
	"carprice/internal/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// History is the prediction log the server appends to and lists from.
type History interface {
	StorePrediction(rec storage.PredictionRecord) (storage.PredictionRecord, error)
	RecentPredictions(limit int) ([]storage.PredictionRecord, error)
}

// Recorder receives per-request metrics.
type Recorder interface {
	HTTPRequestInc(route string, code int)
	WSSessionsAdd(delta float64)
}

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Addr           string
	CORSOrigin     string
	RequestTimeout time.Duration
	History        History
	Recorder       Recorder
	Gatherer       prometheus.Gatherer
	Now            func() time.Time
}

// Server is the HTTP front of a model.
type Server struct {
	model    ml.Predictor
	opts     Options
	router   *mux.Router
	server   *http.Server
	upgrader websocket.Upgrader

	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex
}

// New wires the routes for model.
func New(model ml.Predictor, opts Options) *Server {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		model:    model,
		opts:     opts,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]struct{}),
	}

	r := mux.NewRouter()
	r.Use(s.countRequests)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(s.cors)
	apiRouter.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/model-info", s.handleModelInfo).Methods(http.MethodGet)
	apiRouter.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	apiRouter.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	apiRouter.HandleFunc("/ws/predict", s.handleWebSocket).Methods(http.MethodGet)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	s.router = r

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: opts.RequestTimeout,
		ReadTimeout:       opts.RequestTimeout,
		WriteTimeout:      opts.RequestTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves in the background. Errors other than a clean shutdown are
// delivered on the returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.server.Addr).Msg("starting API server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server failed")
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Shutdown closes websocket sessions and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.clientsMu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown API server: %w", err)
	}
	log.Info().Msg("API server stopped")
	return nil
}
