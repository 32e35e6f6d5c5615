package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mwhited/typoscope/internal/db"
	"github.com/mwhited/typoscope/internal/types"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]*db.CacheRow
	getErr  error
	putErr  error
	puts    int
	deletes int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*db.CacheRow)}
}

func (m *memStore) GetCacheRow(_ context.Context, hash string) (*db.CacheRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	row, ok := m.rows[hash]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (m *memStore) UpsertCacheRow(_ context.Context, row *db.CacheRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	copied := *row
	m.rows[row.ContentHash] = &copied
	m.puts++
	return nil
}

func (m *memStore) DeleteExpiredCacheRows(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, row := range m.rows {
		if !row.ExpiresAt.After(cutoff) {
			delete(m.rows, hash)
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteAllCacheRows(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[string]*db.CacheRow)
	m.deletes++
	return nil
}

func testCache(store Store, now time.Time) *Cache {
	c := New(store)
	c.now = func() time.Time { return now }
	return c
}

func sampleReport(score int) *types.ComplianceReport {
	return &types.ComplianceReport{
		OverallScore:      score,
		FontSizesDetected: 3,
		ComplianceSummary: types.ComplianceSummary{PassesSizeLimit: true, SeverityLevel: types.SeverityLow},
	}
}

func TestPutThenGetRoundTrip(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testCache(store, now)

	c.Put(context.Background(), "hash-a", sampleReport(85), time.Hour)

	got, ok := c.Get(context.Background(), "hash-a")
	if !ok {
		t.Fatal("expected cache hit before expiry")
	}
	if got.OverallScore != 85 {
		t.Errorf("OverallScore = %d, want 85", got.OverallScore)
	}
}

func TestGetIgnoresExpiredRowEvenIfStored(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testCache(store, now)

	c.Put(context.Background(), "hash-a", sampleReport(85), time.Hour)

	// Advance past expiry without deleting the physical row.
	c.now = func() time.Time { return now.Add(2 * time.Hour) }

	if _, ok := c.Get(context.Background(), "hash-a"); ok {
		t.Error("expired row must present as absent")
	}
	if len(store.rows) != 1 {
		t.Error("test invariant: the row should still be physically present")
	}
}

func TestGetAtExactExpiryIsMiss(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testCache(store, now)

	c.Put(context.Background(), "hash-a", sampleReport(85), time.Hour)
	c.now = func() time.Time { return now.Add(time.Hour) }

	if _, ok := c.Get(context.Background(), "hash-a"); ok {
		t.Error("a row whose expiresAt equals now must be treated as absent")
	}
}

func TestPutOverwritesUnconditionally(t *testing.T) {
	store := newMemStore()
	now := time.Now()
	c := testCache(store, now)

	c.Put(context.Background(), "hash-a", sampleReport(85), time.Hour)
	c.Put(context.Background(), "hash-a", sampleReport(55), time.Hour)

	got, ok := c.Get(context.Background(), "hash-a")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.OverallScore != 55 {
		t.Errorf("OverallScore = %d, want last write 55", got.OverallScore)
	}
}

func TestPutDefaultTTL(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testCache(store, now)

	c.Put(context.Background(), "hash-a", sampleReport(85), 0)

	row := store.rows["hash-a"]
	if row == nil {
		t.Fatal("row not stored")
	}
	if want := now.Add(DefaultTTL); !row.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", row.ExpiresAt, want)
	}
}

func TestReadFailureIsAMiss(t *testing.T) {
	store := newMemStore()
	c := testCache(store, time.Now())
	c.Put(context.Background(), "hash-a", sampleReport(85), time.Hour)

	store.getErr = errors.New("connection refused")
	if _, ok := c.Get(context.Background(), "hash-a"); ok {
		t.Error("store failure must degrade to a miss, not an error")
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("connection refused")
	c := testCache(store, time.Now())

	// Must not panic or propagate; analysis continues uncached.
	c.Put(context.Background(), "hash-a", sampleReport(85), time.Hour)
}

func TestConcurrentPutsConverge(t *testing.T) {
	store := newMemStore()
	c := testCache(store, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			c.Put(context.Background(), "hash-a", sampleReport(score), time.Hour)
		}(20 + i)
	}
	wg.Wait()

	got, ok := c.Get(context.Background(), "hash-a")
	if !ok {
		t.Fatal("expected a stored value after racing Puts")
	}
	if got.OverallScore < 20 || got.OverallScore > 35 {
		t.Errorf("stored score %d is not one of the racing writes", got.OverallScore)
	}
}

func TestInvalidateAll(t *testing.T) {
	store := newMemStore()
	c := testCache(store, time.Now())
	c.Put(context.Background(), "hash-a", sampleReport(85), time.Hour)
	c.Put(context.Background(), "hash-b", sampleReport(55), time.Hour)

	if err := c.InvalidateAll(context.Background()); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}
	if _, ok := c.Get(context.Background(), "hash-a"); ok {
		t.Error("hash-a should be gone after InvalidateAll")
	}
	if _, ok := c.Get(context.Background(), "hash-b"); ok {
		t.Error("hash-b should be gone after InvalidateAll")
	}
}

func TestPurgeExpired(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testCache(store, now)

	c.Put(context.Background(), "old", sampleReport(85), time.Minute)
	c.Put(context.Background(), "fresh", sampleReport(85), time.Hour)

	c.now = func() time.Time { return now.Add(30 * time.Minute) }
	n, err := c.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d rows, want 1", n)
	}
	if _, ok := c.Get(context.Background(), "fresh"); !ok {
		t.Error("fresh row must survive the purge")
	}
}
