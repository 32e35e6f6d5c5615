package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mwhited/typoscope/internal/db"
	"github.com/mwhited/typoscope/internal/extraction"
	"github.com/mwhited/typoscope/internal/ingestion"
	"github.com/mwhited/typoscope/internal/report"
	"github.com/mwhited/typoscope/internal/types"
)

type fakeStore struct {
	files    map[uuid.UUID]*db.File
	inserted []*db.Analysis
	pingErr  error
	fileErr  error
}

func (f *fakeStore) GetFileContent(_ context.Context, id uuid.UUID) (*db.File, error) {
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	return f.files[id], nil
}

func (f *fakeStore) InsertAnalysis(_ context.Context, a *db.Analysis) (uuid.UUID, error) {
	f.inserted = append(f.inserted, a)
	return uuid.New(), nil
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

type fakeCache struct {
	entries map[string]*types.ComplianceReport
	puts    int
}

func (f *fakeCache) Get(_ context.Context, hash string) (*types.ComplianceReport, bool) {
	r, ok := f.entries[hash]
	return r, ok
}

func (f *fakeCache) Put(_ context.Context, hash string, r *types.ComplianceReport, _ time.Duration) {
	f.entries[hash] = r
	f.puts++
}

type fakeVision struct {
	report *types.ComplianceReport
	err    error
	calls  int
}

func (f *fakeVision) Analyze(_ context.Context, _ []byte) (*types.ComplianceReport, error) {
	f.calls++
	return f.report, f.err
}

func (f *fakeVision) Probe(_ context.Context) error { return f.err }
func (f *fakeVision) Close() error                  { return nil }

func newTestService(store *fakeStore, c *fakeCache, v *fakeVision) *Service {
	s := New(store, c, nil, report.NewBuilder(report.SectionConfig{}), time.Hour)
	if v != nil {
		s.vision = v
	}
	s.renderFn = func(_ context.Context, data []byte, _ string) ([]byte, error) {
		return data, nil
	}
	s.extractFn = func(_ []byte, mimeType string) (*types.FontSizeAnalysis, error) {
		if mimeType != ingestion.MimePDF {
			return nil, &extraction.UnsupportedError{MimeType: mimeType}
		}
		return &types.FontSizeAnalysis{
			Sizes:           []float64{24, 16, 12},
			UniqueSizeCount: 3,
			Method:          types.MethodMetadataExact,
			Confidence:      0.95,
		}, nil
	}
	return s
}

func storedPDF() (*fakeStore, uuid.UUID) {
	id := uuid.New()
	return &fakeStore{files: map[uuid.UUID]*db.File{
		id: {ID: id, ContentHash: "abc123", MimeType: ingestion.MimePDF, Content: []byte("%PDF-")},
	}}, id
}

func TestAnalyzeExactPath(t *testing.T) {
	store, id := storedPDF()
	c := &fakeCache{entries: map[string]*types.ComplianceReport{}}
	svc := newTestService(store, c, nil)

	res, err := svc.Analyze(context.Background(), Request{FileID: id})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Cached {
		t.Error("first analysis should not be cached")
	}
	if res.Report.FontSizesDetected != 3 {
		t.Errorf("FontSizesDetected = %d, want 3", res.Report.FontSizesDetected)
	}
	if res.AnalysisID == uuid.Nil {
		t.Error("fresh analysis should record a history row")
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted %d history rows, want 1", len(store.inserted))
	}
	if c.puts != 1 {
		t.Errorf("cache puts = %d, want 1", c.puts)
	}
}

func TestAnalyzeServesCacheHit(t *testing.T) {
	store, id := storedPDF()
	cached := &types.ComplianceReport{OverallScore: 85}
	c := &fakeCache{entries: map[string]*types.ComplianceReport{"abc123": cached}}
	svc := newTestService(store, c, nil)

	res, err := svc.Analyze(context.Background(), Request{FileID: id})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !res.Cached {
		t.Error("should be served from cache")
	}
	if res.Report != cached {
		t.Error("cached report should be returned as-is")
	}
	if len(store.inserted) != 0 {
		t.Error("cache hit must not write a history row")
	}
}

func TestAnalyzeForceRefreshSkipsCache(t *testing.T) {
	store, id := storedPDF()
	c := &fakeCache{entries: map[string]*types.ComplianceReport{
		"abc123": {OverallScore: 1},
	}}
	svc := newTestService(store, c, nil)

	res, err := svc.Analyze(context.Background(), Request{FileID: id, ForceRefresh: true})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Cached {
		t.Error("force_refresh must bypass the cache")
	}
	if c.entries["abc123"].OverallScore == 1 {
		t.Error("fresh result should replace the cached entry")
	}
}

func TestAnalyzePNGUsesVision(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{files: map[uuid.UUID]*db.File{
		id: {ID: id, ContentHash: "png123", MimeType: ingestion.MimePNG, Content: []byte{0x89}},
	}}
	v := &fakeVision{report: &types.ComplianceReport{OverallScore: 55, FontSizesDetected: 7}}
	svc := newTestService(store, &fakeCache{entries: map[string]*types.ComplianceReport{}}, v)

	res, err := svc.Analyze(context.Background(), Request{FileID: id})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if v.calls != 1 {
		t.Errorf("vision calls = %d, want 1", v.calls)
	}
	if res.Report.OverallScore != 55 {
		t.Errorf("OverallScore = %d, want 55", res.Report.OverallScore)
	}
}

func TestAnalyzePNGWithoutVisionFails(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{files: map[uuid.UUID]*db.File{
		id: {ID: id, ContentHash: "png123", MimeType: ingestion.MimePNG, Content: []byte{0x89}},
	}}
	svc := newTestService(store, &fakeCache{entries: map[string]*types.ComplianceReport{}}, nil)

	_, err := svc.Analyze(context.Background(), Request{FileID: id})
	if !errors.Is(err, ErrVisionUnavailable) {
		t.Errorf("error = %v, want ErrVisionUnavailable", err)
	}
}

func TestAnalyzeMethodVisionForcesVisionOnPDF(t *testing.T) {
	store, id := storedPDF()
	v := &fakeVision{report: &types.ComplianceReport{OverallScore: 70}}
	svc := newTestService(store, &fakeCache{entries: map[string]*types.ComplianceReport{}}, v)

	res, err := svc.Analyze(context.Background(), Request{FileID: id, Method: MethodVision})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if v.calls != 1 {
		t.Error("method=vision should route a PDF through the vision path")
	}
	if res.Report.OverallScore != 70 {
		t.Errorf("OverallScore = %d, want 70", res.Report.OverallScore)
	}
}

func TestAnalyzeMethodExactRefusesPNG(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{files: map[uuid.UUID]*db.File{
		id: {ID: id, ContentHash: "png123", MimeType: ingestion.MimePNG, Content: []byte{0x89}},
	}}
	v := &fakeVision{report: &types.ComplianceReport{}}
	svc := newTestService(store, &fakeCache{entries: map[string]*types.ComplianceReport{}}, v)

	_, err := svc.Analyze(context.Background(), Request{FileID: id, Method: MethodExact})
	if err == nil {
		t.Fatal("method=exact on a PNG must fail, never estimate")
	}
	var unsupported *extraction.UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("error = %T, want *extraction.UnsupportedError", err)
	}
	if v.calls != 0 {
		t.Error("method=exact must not fall back to vision")
	}
}

func TestAnalyzeUnknownMethod(t *testing.T) {
	store, id := storedPDF()
	svc := newTestService(store, &fakeCache{entries: map[string]*types.ComplianceReport{}}, nil)

	_, err := svc.Analyze(context.Background(), Request{FileID: id, Method: "guess"})
	var invalid *InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Errorf("error = %T, want *InvalidRequestError", err)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	svc := newTestService(&fakeStore{files: map[uuid.UUID]*db.File{}}, &fakeCache{entries: map[string]*types.ComplianceReport{}}, nil)

	_, err := svc.Analyze(context.Background(), Request{FileID: uuid.New()})
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("error = %v, want ErrFileNotFound", err)
	}
}

func TestAnalyzeZeroFileID(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeCache{}, nil)

	_, err := svc.Analyze(context.Background(), Request{})
	var invalid *InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Errorf("error = %T, want *InvalidRequestError", err)
	}
}

func TestCheckHealth(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeCache{}, &fakeVision{})

	h := svc.CheckHealth(context.Background())
	if !h.Healthy || !h.Database.Healthy || !h.Vision.Healthy {
		t.Errorf("health = %+v, want all healthy", h)
	}
}

func TestCheckHealthDatabaseDown(t *testing.T) {
	svc := newTestService(&fakeStore{pingErr: errors.New("connection refused")}, &fakeCache{}, &fakeVision{})

	h := svc.CheckHealth(context.Background())
	if h.Healthy || h.Database.Healthy {
		t.Error("database failure should mark health degraded")
	}
	if !h.Vision.Healthy {
		t.Error("vision should still report healthy")
	}
}

func TestCheckHealthNoVision(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeCache{}, nil)

	h := svc.CheckHealth(context.Background())
	if h.Vision.Healthy {
		t.Error("missing vision provider should report unhealthy")
	}
	if h.Vision.Detail == "" {
		t.Error("detail should explain the missing provider")
	}
}
