package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/config"
	"github.com/yuhaojin/stocklens/internal/database"
	"github.com/yuhaojin/stocklens/internal/database/repositories"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repositories.NewAnalysisRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, repo.Init(context.Background()))

	return New(Config{
		Port:    0,
		Log:     zerolog.Nop(),
		Repo:    repo,
		DevMode: true,
		Config: &config.Config{
			DatabasePath:      "ignored",
			DefaultAIProvider: "gemini",
		},
	})
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func saveRecord(t *testing.T, s *Server, id, code, createdAt, details string) {
	t.Helper()

	fund := 68.5
	require.NoError(t, s.repo.Save(context.Background(), &repositories.AnalysisRecord{
		ID:               id,
		Code:             code,
		Name:             code + " Inc",
		Market:           "US",
		CompositeScore:   61.4,
		Verdict:          "hold",
		FundamentalScore: &fund,
		Details:          details,
		CreatedAt:        createdAt,
	}))
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "stocklens", body["service"])
	assert.Equal(t, "gemini", body["default_provider"])
	assert.Equal(t, false, body["synthesis"], "no API key configured")
}

func TestAnalyzeRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"invalid JSON", "not json", "invalid request body"},
		{"empty body", "", "invalid request body"},
		{"missing code", `{}`, "code is required"},
		{"blank code", `{"code": "   "}`, "code is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/v1/analysis/analyze", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestHistoryListFiltersByCode(t *testing.T) {
	s := newTestServer(t)
	saveRecord(t, s, "id-1", "AAPL", "2024-05-01T00:00:00Z", "{}")
	saveRecord(t, s, "id-2", "MSFT", "2024-05-02T00:00:00Z", "{}")
	saveRecord(t, s, "id-3", "AAPL", "2024-05-03T00:00:00Z", "{}")

	rec := doRequest(t, s, http.MethodGet, "/api/v1/history/?code=AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var filtered []*repositories.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	require.Len(t, filtered, 2)
	assert.Equal(t, "id-3", filtered[0].ID, "newest first")
	assert.Equal(t, "id-1", filtered[1].ID)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/history/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var all []*repositories.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 3)
}

func TestHistoryListHonorsLimit(t *testing.T) {
	s := newTestServer(t)
	saveRecord(t, s, "id-1", "AAPL", "2024-05-01T00:00:00Z", "{}")
	saveRecord(t, s, "id-2", "AAPL", "2024-05-02T00:00:00Z", "{}")

	rec := doRequest(t, s, http.MethodGet, "/api/v1/history/?code=AAPL&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []*repositories.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "id-2", records[0].ID)
}

func TestHistoryDetailInlinesDetails(t *testing.T) {
	s := newTestServer(t)
	saveRecord(t, s, "id-1", "AAPL", "2024-05-01T00:00:00Z", `{"composite_score": 77.5}`)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/history/id-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "id-1", body["id"])
	assert.Equal(t, "AAPL", body["code"])
	assert.Equal(t, "hold", body["verdict"])
	assert.InDelta(t, 68.5, body["fundamental_score"], 1e-9)

	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok, "details should be a JSON object, not a string")
	assert.InDelta(t, 77.5, details["composite_score"], 1e-9)
}

func TestHistoryDetailNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/history/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not found", body["error"])
}

func TestStockLatest(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/stocks/AAPL/latest", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "no analysis found", errBody["error"])

	saveRecord(t, s, "id-1", "AAPL", "2024-05-01T00:00:00Z", "{}")
	saveRecord(t, s, "id-2", "AAPL", "2024-05-02T00:00:00Z", "{}")

	rec = doRequest(t, s, http.MethodGet, "/api/v1/stocks/AAPL/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got repositories.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "id-2", got.ID)
	assert.Equal(t, "AAPL", got.Code)
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		fallback int
		want     int
	}{
		{"missing", "/x", 50, 50},
		{"valid", "/x?limit=7", 50, 7},
		{"zero", "/x?limit=0", 50, 50},
		{"negative", "/x?limit=-3", 50, 50},
		{"not a number", "/x?limit=abc", 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.want, queryInt(req, "limit", tt.fallback))
		})
	}
}
