package ui

import (
	"context"
	"net/http"
	"time"

	"edgefinder/adapters/stats/senses"
	"edgefinder/domain/core"
)

type hypothesisRequest struct {
	HypothesisID string `json:"hypothesis_id"`
}

type seriesRequest struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Method string    `json:"method"`
	MaxLag int       `json:"max_lag"`
}

type sentimentRequest struct {
	Texts []string `json:"texts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleRunAsync queues a hypothesis run and returns immediately, mirroring
// callers that cannot hold a connection through a long scan.
func (s *Server) handleRunAsync(w http.ResponseWriter, r *http.Request) {
	var req hypothesisRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := core.ParseHypothesisID(req.HypothesisID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	go func() {
		// Detached from the request context; the runner persists the outcome.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.runner.RunHypothesis(ctx, id); err != nil {
			s.logger.Error("background hypothesis %s: %v", id, err)
		}
	}()

	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"status":        "queued",
		"hypothesis_id": req.HypothesisID,
	})
}

func (s *Server) handleRunSync(w http.ResponseWriter, r *http.Request) {
	var req hypothesisRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := core.ParseHypothesisID(req.HypothesisID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.runner.RunHypothesis(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsNotFoundError(err) {
			status = http.StatusNotFound
		} else if core.IsValidationError(err) {
			status = http.StatusUnprocessableEntity
		}
		s.respondError(w, status, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "completed",
		"result": result,
	})
}

func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()
		if _, err := s.runner.RunAllPending(ctx); err != nil {
			s.logger.Error("background batch run: %v", err)
		}
	}()
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	method := senses.CorrelationMethod(req.Method)
	if req.Method == "" {
		method = senses.MethodPearson
	}

	result, err := s.engine.CorrelationTest(req.X, req.Y, method)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGranger(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.GrangerCausalityTest(req.X, req.Y, req.MaxLag)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSentimentAnalyze(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Texts) == 0 {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": []interface{}{}})
		return
	}

	results, err := s.sentiment.AnalyzeBatch(r.Context(), req.Texts)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleSentimentAggregate(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.sentiment.Aggregate(r.Context(), req.Texts)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}
