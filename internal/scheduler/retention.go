package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yuhaojin/stocklens/internal/database/repositories"
)

// RetentionJob prunes stored analyses older than the retention window.
type RetentionJob struct {
	repo          *repositories.AnalysisRepository
	retentionDays int
	log           zerolog.Logger
}

// NewRetentionJob creates a retention cleanup job
func NewRetentionJob(repo *repositories.AnalysisRepository, retentionDays int, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		repo:          repo,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "retention").Logger(),
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "analysis_retention"
}

// Run deletes analyses older than the retention window
func (j *RetentionJob) Run() error {
	if j.retentionDays <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	j.log.Debug().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Retention cleanup finished")

	return nil
}
