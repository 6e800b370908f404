package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/database"
)

func newTestRepo(t *testing.T) *AnalysisRepository {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewAnalysisRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func record(id, code string, score float64, createdAt string) *AnalysisRecord {
	fund := score - 5
	return &AnalysisRecord{
		ID:               id,
		Code:             code,
		Name:             "Test Co",
		Market:           "CN",
		CompositeScore:   score,
		Verdict:          "hold",
		FundamentalScore: &fund,
		Details:          `{"code":"` + code + `"}`,
		CreatedAt:        createdAt,
	}
}

func TestSaveAndLatest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("id-1", "600519", 61.5, "2024-06-01T10:00:00Z")))
	require.NoError(t, repo.Save(ctx, record("id-2", "600519", 64.0, "2024-06-02T10:00:00Z")))

	got, err := repo.Latest(ctx, "600519")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "id-2", got.ID)
	assert.InDelta(t, 64.0, got.CompositeScore, 1e-9)
	require.NotNil(t, got.FundamentalScore)
	assert.InDelta(t, 59.0, *got.FundamentalScore, 1e-9)
	assert.Nil(t, got.TechnicalScore)
}

func TestLatestMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Latest(context.Background(), "000000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveFillsCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := record("id-1", "600519", 50, "")
	require.NoError(t, repo.Save(ctx, rec))
	assert.NotEmpty(t, rec.CreatedAt)

	_, err := time.Parse(time.RFC3339, rec.CreatedAt)
	assert.NoError(t, err)
}

func TestHistoryOrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("id-1", "600519", 50, "2024-06-01T10:00:00Z")))
	require.NoError(t, repo.Save(ctx, record("id-2", "600519", 55, "2024-06-03T10:00:00Z")))
	require.NoError(t, repo.Save(ctx, record("id-3", "600519", 60, "2024-06-02T10:00:00Z")))
	require.NoError(t, repo.Save(ctx, record("id-4", "000001", 70, "2024-06-04T10:00:00Z")))

	got, err := repo.History(ctx, "600519", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "id-2", got[0].ID)
	assert.Equal(t, "id-3", got[1].ID)
}

func TestRecentSpansAllCodes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("id-1", "600519", 50, "2024-06-01T10:00:00Z")))
	require.NoError(t, repo.Save(ctx, record("id-2", "AAPL", 75, "2024-06-02T10:00:00Z")))

	got, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Code)
	assert.Equal(t, "600519", got[1].Code)
}

func TestGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("id-1", "600519", 50, "2024-06-01T10:00:00Z")))

	got, err := repo.Get(ctx, "id-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "600519", got.Code)
	assert.Equal(t, `{"code":"600519"}`, got.Details)

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteOlderThan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("id-1", "600519", 50, "2024-01-01T10:00:00Z")))
	require.NoError(t, repo.Save(ctx, record("id-2", "600519", 55, "2024-06-01T10:00:00Z")))

	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	n, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := repo.History(ctx, "600519", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "id-2", remaining[0].ID)
}
