package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// CacheRow is one persisted analysis result keyed by file content hash.
type CacheRow struct {
	ContentHash    string    `json:"content_hash"`
	AnalysisResult []byte    `json:"analysis_result"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// GetCacheRow retrieves a cache row by content hash, or nil if absent.
// Expiry is the caller's policy; this returns the row as stored.
func (db *DB) GetCacheRow(ctx context.Context, contentHash string) (*CacheRow, error) {
	var row CacheRow
	err := db.pool.QueryRow(ctx,
		`SELECT content_hash, analysis_result, expires_at
		 FROM analysis_cache WHERE content_hash = $1`,
		contentHash,
	).Scan(&row.ContentHash, &row.AnalysisResult, &row.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache row: %w", err)
	}
	return &row, nil
}

// UpsertCacheRow stores a cache row, unconditionally replacing any existing
// row for the same hash. Concurrent writers are last-write-wins.
func (db *DB) UpsertCacheRow(ctx context.Context, row *CacheRow) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO analysis_cache (content_hash, analysis_result, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (content_hash) DO UPDATE SET analysis_result = $2, expires_at = $3`,
		row.ContentHash, row.AnalysisResult, row.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache row: %w", err)
	}
	return nil
}

// DeleteExpiredCacheRows physically removes rows that expired before cutoff.
// Reads already treat expired rows as absent; this is housekeeping only.
func (db *DB) DeleteExpiredCacheRows(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM analysis_cache WHERE expires_at <= $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache rows: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAllCacheRows drops every cache row
func (db *DB) DeleteAllCacheRows(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM analysis_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
