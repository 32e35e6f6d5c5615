package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Analysis is one historical analysis run for a file.
type Analysis struct {
	ID                uuid.UUID `json:"id"`
	FileID            uuid.UUID `json:"file_id"`
	AnalysisData      []byte    `json:"analysis_data"`
	FontSizesDetected int       `json:"font_sizes_detected"`
	ExceedsSizeLimit  bool      `json:"exceeds_size_limit"`
	OverallScore      int       `json:"overall_score"`
	CreatedAt         time.Time `json:"created_at"`
}

// InsertAnalysis records a fresh analysis run and returns its ID
func (db *DB) InsertAnalysis(ctx context.Context, a *Analysis) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO analyses (file_id, analysis_data, font_sizes_detected, exceeds_size_limit, overall_score)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		a.FileID, a.AnalysisData, a.FontSizesDetected, a.ExceedsSizeLimit, a.OverallScore,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert analysis: %w", err)
	}
	return id, nil
}

// LatestAnalysisForFile retrieves the most recent analysis for a file, or nil
func (db *DB) LatestAnalysisForFile(ctx context.Context, fileID uuid.UUID) (*Analysis, error) {
	var a Analysis
	err := db.pool.QueryRow(ctx,
		`SELECT id, file_id, analysis_data, font_sizes_detected, exceeds_size_limit, overall_score, created_at
		 FROM analyses WHERE file_id = $1 ORDER BY created_at DESC LIMIT 1`,
		fileID,
	).Scan(&a.ID, &a.FileID, &a.AnalysisData, &a.FontSizesDetected, &a.ExceedsSizeLimit, &a.OverallScore, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return &a, nil
}
