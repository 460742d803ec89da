// Package ui exposes the analysis worker over HTTP. The handlers are a thin
// shell: every operation delegates to the app layer or the test engine.
package ui

import (
	"encoding/json"
	"net/http"
	"time"

	"edgefinder/adapters/stats/senses"
	"edgefinder/app"
	"edgefinder/internal"
	"edgefinder/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server hosts the worker API.
type Server struct {
	runner    *app.Runner
	engine    *senses.Engine
	sentiment ports.SentimentScorer
	logger    *internal.Logger
	router    chi.Router
}

// NewServer wires the router.
func NewServer(runner *app.Runner, engine *senses.Engine, scorer ports.SentimentScorer, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		runner:    runner,
		engine:    engine,
		sentiment: scorer,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", s.handleHealth)
	r.Post("/hypothesis/run", s.handleRunAsync)
	r.Post("/hypothesis/run-sync", s.handleRunSync)
	r.Post("/hypothesis/run-all", s.handleRunAll)
	r.Post("/stats/correlation", s.handleCorrelation)
	r.Post("/stats/granger", s.handleGranger)
	r.Post("/sentiment/analyze", s.handleSentimentAnalyze)
	r.Post("/sentiment/aggregate", s.handleSentimentAggregate)

	s.router = r
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("analysis API listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respondJSON(w, status, map[string]string{"detail": err.Error()})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
