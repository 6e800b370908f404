package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/database"
	"github.com/yuhaojin/stocklens/internal/database/repositories"
)

func newTestRepo(t *testing.T) *repositories.AnalysisRepository {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repositories.NewAnalysisRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func saveAt(t *testing.T, repo *repositories.AnalysisRepository, id string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &repositories.AnalysisRecord{
		ID:             id,
		Code:           "AAPL",
		CompositeScore: 50,
		Verdict:        "hold",
		Details:        "{}",
		CreatedAt:      createdAt.UTC().Format(time.RFC3339),
	}))
}

func TestRetentionJobPrunesOldRecords(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	saveAt(t, repo, "old", now.AddDate(0, 0, -120))
	saveAt(t, repo, "recent", now.AddDate(0, 0, -5))

	job := NewRetentionJob(repo, 90, zerolog.Nop())
	assert.Equal(t, "analysis_retention", job.Name())
	require.NoError(t, job.Run())

	records, err := repo.History(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "recent", records[0].ID)
}

func TestRetentionJobDisabled(t *testing.T) {
	repo := newTestRepo(t)
	saveAt(t, repo, "old", time.Now().AddDate(0, 0, -400))

	job := NewRetentionJob(repo, 0, zerolog.Nop())
	require.NoError(t, job.Run())

	records, err := repo.History(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1, "zero retention disables cleanup")
}
