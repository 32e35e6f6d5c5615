// Package analysis orchestrates a full compliance run: file lookup, cache
// consult, the exact or vision analysis path, and result persistence.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mwhited/typoscope/internal/db"
	"github.com/mwhited/typoscope/internal/extraction"
	"github.com/mwhited/typoscope/internal/ingestion"
	"github.com/mwhited/typoscope/internal/logger"
	"github.com/mwhited/typoscope/internal/render"
	"github.com/mwhited/typoscope/internal/report"
	"github.com/mwhited/typoscope/internal/types"
	"github.com/mwhited/typoscope/internal/vision"
)

// Analysis methods selectable per request.
const (
	MethodAuto   = ""
	MethodExact  = "exact"
	MethodVision = "vision"
)

// Store is the persistence the service needs. *db.DB satisfies it.
type Store interface {
	GetFileContent(ctx context.Context, id uuid.UUID) (*db.File, error)
	InsertAnalysis(ctx context.Context, a *db.Analysis) (uuid.UUID, error)
	Ping(ctx context.Context) error
}

// ReportCache is the result cache the service consults. *cache.Cache
// satisfies it.
type ReportCache interface {
	Get(ctx context.Context, contentHash string) (*types.ComplianceReport, bool)
	Put(ctx context.Context, contentHash string, report *types.ComplianceReport, ttl time.Duration)
}

// Request asks for a compliance report on a stored file.
type Request struct {
	FileID       uuid.UUID
	ForceRefresh bool
	Method       string // MethodAuto, MethodExact or MethodVision
}

// Result is a completed analysis. AnalysisID is zero for cache hits since no
// new history row is written.
type Result struct {
	Report     *types.ComplianceReport `json:"report"`
	Cached     bool                    `json:"cached"`
	AnalysisID uuid.UUID               `json:"analysis_id"`
}

// Service runs analyses end to end.
type Service struct {
	store   Store
	cache   ReportCache
	vision  vision.Client // nil when no provider is configured
	builder *report.Builder
	ttl     time.Duration
	log     zerolog.Logger

	// swapped out in tests
	renderFn  func(ctx context.Context, data []byte, mimeType string) ([]byte, error)
	extractFn func(data []byte, mimeType string) (*types.FontSizeAnalysis, error)
}

// New creates a Service. visionClient may be nil, which disables the vision
// path. ttl <= 0 uses the cache default.
func New(store Store, reportCache ReportCache, visionClient vision.Client, builder *report.Builder, ttl time.Duration) *Service {
	return &Service{
		store:     store,
		cache:     reportCache,
		vision:    visionClient,
		builder:   builder,
		ttl:       ttl,
		log:       logger.WithComponent("analysis"),
		renderFn:  render.Render,
		extractFn: extraction.ExtractFile,
	}
}

// Analyze produces a compliance report for a stored file. Identical content
// is served from the cache unless the request forces a refresh; fresh
// computations are persisted as history and cached for future requests.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.FileID == uuid.Nil {
		return nil, &InvalidRequestError{Reason: "file_id is required"}
	}
	switch req.Method {
	case MethodAuto, MethodExact, MethodVision:
	default:
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("unknown method %q", req.Method)}
	}

	f, err := s.store.GetFileContent(ctx, req.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load file: %w", err)
	}
	if f == nil {
		return nil, ErrFileNotFound
	}

	if !req.ForceRefresh {
		if cached, ok := s.cache.Get(ctx, f.ContentHash); ok {
			s.log.Info().Str("content_hash", f.ContentHash).Msg("serving cached analysis")
			return &Result{Report: cached, Cached: true}, nil
		}
	}

	rep, err := s.compute(ctx, f, req.Method)
	if err != nil {
		return nil, err
	}

	result := &Result{Report: rep}
	if id, err := s.persist(ctx, f.ID, rep); err != nil {
		// History is best-effort; the caller still gets their report.
		s.log.Error().Err(err).Stringer("file_id", f.ID).Msg("failed to persist analysis history")
	} else {
		result.AnalysisID = id
	}

	s.cache.Put(ctx, f.ContentHash, rep, s.ttl)
	return result, nil
}

// compute picks the analysis path. PDFs default to exact metadata
// extraction; PNGs can only go through the vision model since there is no
// reliable way to measure font sizes from pixels alone.
func (s *Service) compute(ctx context.Context, f *db.File, method string) (*types.ComplianceReport, error) {
	useVision := method == MethodVision || (method == MethodAuto && f.MimeType == ingestion.MimePNG)
	if !useVision {
		a, err := s.extractFn(f.Content, f.MimeType)
		if err != nil {
			return nil, err
		}
		return s.builder.Build(a), nil
	}

	if s.vision == nil {
		return nil, ErrVisionUnavailable
	}
	png, err := s.renderFn(ctx, f.Content, f.MimeType)
	if err != nil {
		return nil, err
	}
	return s.vision.Analyze(ctx, png)
}

func (s *Service) persist(ctx context.Context, fileID uuid.UUID, rep *types.ComplianceReport) (uuid.UUID, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to serialize report: %w", err)
	}
	return s.store.InsertAnalysis(ctx, &db.Analysis{
		FileID:            fileID,
		AnalysisData:      data,
		FontSizesDetected: rep.FontSizesDetected,
		ExceedsSizeLimit:  rep.ExceedsSizeLimit,
		OverallScore:      rep.OverallScore,
	})
}

// ComponentHealth is the probe outcome for one dependency.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Health is the aggregate health report.
type Health struct {
	Healthy  bool            `json:"healthy"`
	Database ComponentHealth `json:"database"`
	Vision   ComponentHealth `json:"vision"`
}

// CheckHealth probes the database and the vision provider concurrently.
func (s *Service) CheckHealth(ctx context.Context) *Health {
	h := &Health{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.Database = s.CheckDatabase(ctx)
		return nil
	})
	g.Go(func() error {
		h.Vision = s.CheckVision(ctx)
		return nil
	})
	_ = g.Wait()

	h.Healthy = h.Database.Healthy && h.Vision.Healthy
	return h
}

// CheckDatabase pings the database.
func (s *Service) CheckDatabase(ctx context.Context) ComponentHealth {
	if err := s.store.Ping(ctx); err != nil {
		return ComponentHealth{Detail: err.Error()}
	}
	return ComponentHealth{Healthy: true}
}

// CheckVision probes the vision provider with a minimal request.
func (s *Service) CheckVision(ctx context.Context) ComponentHealth {
	if s.vision == nil {
		return ComponentHealth{Detail: "no vision provider configured"}
	}
	if err := s.vision.Probe(ctx); err != nil {
		return ComponentHealth{Detail: err.Error()}
	}
	return ComponentHealth{Healthy: true}
}
