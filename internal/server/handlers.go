package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":           "healthy",
		"version":          "1.0.0",
		"service":          "stocklens",
		"synthesis":        s.cfg.SynthesisEnabled(),
		"default_provider": s.cfg.DefaultAIProvider,
	}

	s.writeJSON(w, http.StatusOK, response)
}

type analyzeRequest struct {
	Code       string `json:"code"`
	AIProvider string `json:"ai_provider,omitempty"`
}

// handleAnalyze runs a full analysis for one stock
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		s.writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	result, err := s.orch.Run(r.Context(), req.Code, req.AIProvider)
	if err != nil {
		s.log.Error().Err(err).Str("code", req.Code).Msg("Analysis failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleHistoryList returns recent analyses, optionally filtered by code
func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	var (
		records interface{}
		err     error
	)
	if code := r.URL.Query().Get("code"); code != "" {
		records, err = s.repo.History(r.Context(), code, limit)
	} else {
		records, err = s.repo.Recent(r.Context(), limit)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load history")
		s.writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	s.writeJSON(w, http.StatusOK, records)
}

// handleHistoryDetail returns one analysis with full details
func (s *Server) handleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("Failed to load analysis")
		s.writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}
	if rec == nil {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	// Details holds the full result JSON; inline it instead of
	// double-encoding.
	response := map[string]interface{}{
		"id":                rec.ID,
		"code":              rec.Code,
		"name":              rec.Name,
		"market":            rec.Market,
		"composite_score":   rec.CompositeScore,
		"verdict":           rec.Verdict,
		"fundamental_score": rec.FundamentalScore,
		"technical_score":   rec.TechnicalScore,
		"sentiment_score":   rec.SentimentScore,
		"created_at":        rec.CreatedAt,
		"details":           json.RawMessage(rec.Details),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleStockInfo returns basic info and the quote snapshot for a stock
func (s *Server) handleStockInfo(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	stock, err := s.data.FetchStockData(r.Context(), code, queryInt(r, "days", 30))
	if err != nil {
		s.log.Error().Err(err).Str("code", code).Msg("Failed to fetch stock info")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":        stock.Code,
		"name":        stock.Name,
		"market":      stock.Market,
		"sector":      stock.Sector,
		"industry":    stock.Industry,
		"description": stock.Description,
		"quote":       stock.Realtime,
	})
}

// handleStockDaily returns daily OHLCV bars for a stock
func (s *Server) handleStockDaily(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	stock, err := s.data.FetchStockData(r.Context(), code, queryInt(r, "days", 365))
	if err != nil {
		s.log.Error().Err(err).Str("code", code).Msg("Failed to fetch daily data")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":   stock.Code,
		"market": stock.Market,
		"data":   stock.Daily.Sorted(),
	})
}

// handleStockLatest returns the most recent stored analysis for a stock
func (s *Server) handleStockLatest(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	rec, err := s.repo.Latest(r.Context(), code)
	if err != nil {
		s.log.Error().Err(err).Str("code", code).Msg("Failed to load latest analysis")
		s.writeError(w, http.StatusInternalServerError, "failed to load latest analysis")
		return
	}
	if rec == nil {
		s.writeError(w, http.StatusNotFound, "no analysis found")
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
