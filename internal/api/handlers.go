package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carprice/internal/car"
	"carprice/internal/common"
	"carprice/internal/ml"
	"carprice/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PredictResponse is the body of a successful prediction.
type PredictResponse struct {
	Success    bool                 `json:"success"`
	ID         string               `json:"id"`
	Prediction *ml.PredictionResult `json:"prediction"`
	Timestamp  string               `json:"timestamp"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Fields  []string `json:"fields,omitempty"`
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
}

// HistoryResponse is returned by /api/history.
type HistoryResponse struct {
	Count       int                        `json:"count"`
	Predictions []storage.PredictionRecord `json:"predictions"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Resource not found")
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (s *Server) timestamp() string {
	return s.opts.Now().Format(time.RFC3339Nano)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"message": "Car Price Prediction API",
		"version": s.model.Info().Version,
		"endpoints": map[string]string{
			"predict":    "/api/predict (POST)",
			"model_info": "/api/model-info (GET)",
			"health":     "/api/health (GET)",
			"history":    "/api/history (GET)",
			"ws_predict": "/api/ws/predict (WebSocket)",
		},
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.model.Info())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := s.model.Info()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		ModelLoaded: info.IsTrained,
		Timestamp:   s.timestamp(),
		Version:     info.Version,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeError(w, http.StatusNotFound, "Prediction history is disabled")
		return
	}

	limit := common.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, common.MaxHistoryLimit)
	}

	recs, err := s.opts.History.RecentPredictions(limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to read prediction history")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if recs == nil {
		recs = []storage.PredictionRecord{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Count: len(recs), Predictions: recs})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, common.MaxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	status, resp := s.predict(body)
	writeJSON(w, status, resp)
}

// predict runs one request body through the model. It is shared by the HTTP
// and websocket handlers and returns the status code and body to send.
func (s *Server) predict(body []byte) (int, any) {
	if len(body) == 0 {
		return http.StatusBadRequest, ErrorResponse{Error: "No data provided"}
	}

	rec, err := ml.DecodePredictionRequest(body)
	if err != nil {
		return errorResponse(err)
	}

	res, err := s.model.Predict(rec)
	if err != nil {
		return errorResponse(err)
	}
	log.Info().Str("brand", rec.Brand).Float64("price", res.Price).Msg("prediction served")

	id := s.record(rec, res)
	return http.StatusOK, PredictResponse{
		Success:    true,
		ID:         id,
		Prediction: res,
		Timestamp:  s.timestamp(),
	}
}

// record appends the prediction to history and returns its ID. History
// failures are logged and do not fail the request.
func (s *Server) record(rec car.Record, res *ml.PredictionResult) string {
	entry := storage.PredictionRecord{
		ID:           uuid.NewString(),
		Timestamp:    s.opts.Now().UTC(),
		Input:        rec,
		Price:        res.Price,
		Lower:        res.Confidence.Lower,
		Upper:        res.Confidence.Upper,
		ModelVersion: s.model.Info().Version,
	}
	if s.opts.History == nil {
		return entry.ID
	}
	if _, err := s.opts.History.StorePrediction(entry); err != nil {
		log.Warn().Err(err).Str("id", entry.ID).Msg("failed to store prediction")
	}
	return entry.ID
}

func errorResponse(err error) (int, ErrorResponse) {
	var vErr *ml.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn().Err(err).Msg("validation error")
		msg := "Invalid input: " + vErr.Error()
		if len(vErr.Invalid) == 0 {
			msg = "Missing fields: " + strings.Join(vErr.Missing, ", ")
		}
		return http.StatusBadRequest, ErrorResponse{Error: msg, Fields: vErr.Fields()}
	case errors.Is(err, ml.ErrUntrained):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Model not trained"}
	default:
		log.Error().Err(err).Msg("prediction error")
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"}
	}
}
