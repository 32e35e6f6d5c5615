package db

import (
	"context"
	"fmt"
	"time"
)

// InsertRateWindow records one admitted request for an identity. One row per
// request; admission counts rows, it never increments a counter.
func (db *DB) InsertRateWindow(ctx context.Context, identity string, windowStart, windowEnd time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO rate_limits (identity, window_start, window_end)
		 VALUES ($1, $2, $3)`,
		identity, windowStart, windowEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate window: %w", err)
	}
	return nil
}

// CountIdentityWindowsSince counts an identity's requests with window_start
// at or after since.
func (db *DB) CountIdentityWindowsSince(ctx context.Context, identity string, since time.Time) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rate_limits WHERE identity = $1 AND window_start >= $2`,
		identity, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count identity windows: %w", err)
	}
	return count, nil
}

// CountAllWindowsSince counts requests across all identities with
// window_start at or after since.
func (db *DB) CountAllWindowsSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rate_limits WHERE window_start >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count windows: %w", err)
	}
	return count, nil
}

// DeleteRateWindowsEndedBefore garbage-collects rows whose window closed
// before cutoff. Not correctness-critical: counting re-derives truth from
// live rows on every admission.
func (db *DB) DeleteRateWindowsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM rate_limits WHERE window_end < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale rate windows: %w", err)
	}
	return tag.RowsAffected(), nil
}
