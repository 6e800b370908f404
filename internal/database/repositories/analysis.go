package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// AnalysisRecord is a persisted analysis run
type AnalysisRecord struct {
	ID               string   `json:"id"`
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Market           string   `json:"market"`
	CompositeScore   float64  `json:"composite_score"`
	Verdict          string   `json:"verdict"`
	FundamentalScore *float64 `json:"fundamental_score"`
	TechnicalScore   *float64 `json:"technical_score"`
	SentimentScore   *float64 `json:"sentiment_score"`
	Details          string   `json:"details"` // full result as JSON
	CreatedAt        string   `json:"created_at"`
}

// AnalysisRepository stores analysis history
type AnalysisRepository struct {
	*BaseRepository
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *sql.DB, log zerolog.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "analysis").Logger()),
	}
}

// Init creates the analyses table if it does not exist
func (r *AnalysisRepository) Init(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS analyses (
		id                TEXT PRIMARY KEY,
		code              TEXT NOT NULL,
		name              TEXT NOT NULL DEFAULT '',
		market            TEXT NOT NULL DEFAULT '',
		composite_score   REAL NOT NULL,
		verdict           TEXT NOT NULL,
		fundamental_score REAL,
		technical_score   REAL,
		sentiment_score   REAL,
		details           TEXT NOT NULL DEFAULT '{}',
		created_at        TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_code_created ON analyses(code, created_at DESC);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create analyses table: %w", err)
	}
	return nil
}

// Save persists an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, rec *AnalysisRecord) error {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analyses
			(id, code, name, market, composite_score, verdict,
			 fundamental_score, technical_score, sentiment_score, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Code, rec.Name, rec.Market, rec.CompositeScore, rec.Verdict,
		rec.FundamentalScore, rec.TechnicalScore, rec.SentimentScore, rec.Details, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", rec.Code, err)
	}
	return nil
}

// History returns the most recent analyses for a stock, newest first
func (r *AnalysisRepository) History(ctx context.Context, code string, limit int) ([]*AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, market, composite_score, verdict,
		       fundamental_score, technical_score, sentiment_score, details, created_at
		FROM analyses
		WHERE code = ?
		ORDER BY created_at DESC
		LIMIT ?`, code, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", code, err)
	}
	defer rows.Close()

	var records []*AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Recent returns the most recent analyses across all stocks, newest first
func (r *AnalysisRepository) Recent(ctx context.Context, limit int) ([]*AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, market, composite_score, verdict,
		       fundamental_score, technical_score, sentiment_score, details, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent analyses: %w", err)
	}
	defer rows.Close()

	var records []*AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one analysis by id, or nil when it does not exist
func (r *AnalysisRepository) Get(ctx context.Context, id string) (*AnalysisRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, market, composite_score, verdict,
		       fundamental_score, technical_score, sentiment_score, details, created_at
		FROM analyses
		WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanAnalysis(rows)
}

// Latest returns the most recent analysis for a stock, or nil when none exists
func (r *AnalysisRepository) Latest(ctx context.Context, code string) (*AnalysisRecord, error) {
	records, err := r.History(ctx, code, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// DeleteOlderThan removes analyses created before the cutoff and
// returns the number of rows deleted.
func (r *AnalysisRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM analyses WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old analyses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Info().Int64("deleted", n).Msg("Pruned old analyses")
	}
	return n, nil
}

func scanAnalysis(rows *sql.Rows) (*AnalysisRecord, error) {
	rec := &AnalysisRecord{}
	err := rows.Scan(
		&rec.ID, &rec.Code, &rec.Name, &rec.Market, &rec.CompositeScore, &rec.Verdict,
		&rec.FundamentalScore, &rec.TechnicalScore, &rec.SentimentScore, &rec.Details, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis row: %w", err)
	}
	return rec, nil
}
