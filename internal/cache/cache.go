// Package cache gates recomputation of analysis reports behind a
// content-hash-keyed store with TTL expiry.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/mwhited/typoscope/internal/db"
	"github.com/mwhited/typoscope/internal/logger"
	"github.com/mwhited/typoscope/internal/types"
)

// DefaultTTL is how long a computed report stays valid.
const DefaultTTL = 24 * time.Hour

// Store is the row-level persistence the cache needs. *db.DB satisfies it.
type Store interface {
	GetCacheRow(ctx context.Context, contentHash string) (*db.CacheRow, error)
	UpsertCacheRow(ctx context.Context, row *db.CacheRow) error
	DeleteExpiredCacheRows(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAllCacheRows(ctx context.Context) error
}

// Cache is the TTL policy over the row store.
//
// A storage outage degrades to "always recompute": reads fail open as a
// miss and writes are logged and dropped. Concurrent Puts for the same hash
// are last-write-wins; the cache deduplicates storage, not computation.
type Cache struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

// New creates a cache over the given store.
func New(store Store) *Cache {
	return &Cache{
		store: store,
		now:   time.Now,
		log:   logger.WithComponent("cache"),
	}
}

// Get returns the cached report for a content hash. A row that is missing,
// expired, undecodable, or unreachable all present as a miss; an expired row
// is never returned even if still physically stored.
func (c *Cache) Get(ctx context.Context, contentHash string) (*types.ComplianceReport, bool) {
	row, err := c.store.GetCacheRow(ctx, contentHash)
	if err != nil {
		c.log.Error().Err(err).Str("content_hash", contentHash).Msg("cache read failed, treating as miss")
		return nil, false
	}
	if row == nil || !row.ExpiresAt.After(c.now()) {
		return nil, false
	}

	var report types.ComplianceReport
	if err := json.Unmarshal(row.AnalysisResult, &report); err != nil {
		c.log.Error().Err(err).Str("content_hash", contentHash).Msg("cached report undecodable, treating as miss")
		return nil, false
	}
	return &report, true
}

// Put stores a report with the given TTL, overwriting any existing row for
// the hash. Write failures are logged and swallowed so a storage outage
// never fails the analysis itself.
func (c *Cache) Put(ctx context.Context, contentHash string, report *types.ComplianceReport, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	data, err := json.Marshal(report)
	if err != nil {
		c.log.Error().Err(err).Str("content_hash", contentHash).Msg("failed to serialize report for cache")
		return
	}

	row := &db.CacheRow{
		ContentHash:    contentHash,
		AnalysisResult: data,
		ExpiresAt:      c.now().Add(ttl),
	}
	if err := c.store.UpsertCacheRow(ctx, row); err != nil {
		c.log.Error().Err(err).Str("content_hash", contentHash).Msg("cache write failed, continuing without caching")
	}
}

// InvalidateAll drops every cached report. Administrative reset, not a hot
// path, so errors surface.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	return c.store.DeleteAllCacheRows(ctx)
}

// PurgeExpired physically removes rows that have already lapsed. Reads
// already ignore them; this reclaims storage.
func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	return c.store.DeleteExpiredCacheRows(ctx, c.now())
}
