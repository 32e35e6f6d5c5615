package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mwhited/typoscope/internal/analysis"
	"github.com/mwhited/typoscope/internal/db"
	"github.com/mwhited/typoscope/internal/ingestion"
	"github.com/mwhited/typoscope/internal/server/ratelimit"
)

// ---------------------------------------------------------------------
// Upload and file handlers
// ---------------------------------------------------------------------

// UploadResponse describes a stored (or deduplicated) upload.
type UploadResponse struct {
	Success      bool     `json:"success"`
	Data         *db.File `json:"data"`
	Deduplicated bool     `json:"deduplicated,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ingestion.MaxFileSize+1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: "no file provided"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: "failed to read file"})
		return
	}

	upload, err := ingestion.ValidateUpload(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	// Identical content is served from the existing row; re-uploading the
	// same design never stores a second copy.
	existing, err := s.store.GetFileByHash(r.Context(), upload.ContentHash)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if existing != nil {
		s.jsonResponse(w, http.StatusOK, UploadResponse{Success: true, Data: existing, Deduplicated: true})
		return
	}

	f := &db.File{
		Filename:     upload.Filename,
		OriginalName: upload.OriginalName,
		ContentHash:  upload.ContentHash,
		FileSize:     upload.Size,
		MimeType:     upload.MimeType,
		Content:      upload.Data,
	}
	id, err := s.store.InsertFile(r.Context(), f)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	f.ID = id
	f.UploadedAt = time.Now()

	s.jsonResponse(w, http.StatusCreated, UploadResponse{Success: true, Data: f})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "invalid file ID"})
		return
	}

	f, err := s.store.GetFileContent(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if f == nil {
		s.errorResponse(w, &ErrFileNotFound{FileID: id})
		return
	}

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.OriginalName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(f.Content); err != nil {
		s.log.Error().Err(err).Stringer("file_id", id).Msg("failed to write file response")
	}
}

func (s *Server) handleLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "invalid file ID"})
		return
	}

	a, err := s.store.LatestAnalysisForFile(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if a == nil {
		s.errorResponse(w, &ErrFileNotFound{FileID: id})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    a,
	})
}

// ---------------------------------------------------------------------
// Analyze handler
// ---------------------------------------------------------------------

// AnalyzeRequest asks for a compliance report on an uploaded file.
type AnalyzeRequest struct {
	FileID       uuid.UUID `json:"file_id"`
	ForceRefresh bool      `json:"force_refresh"`
	Method       string    `json:"method"`
}

// AnalyzeResponse wraps a completed analysis.
type AnalyzeResponse struct {
	Success    bool      `json:"success"`
	Data       any       `json:"data"`
	Cached     bool      `json:"cached"`
	AnalysisID uuid.UUID `json:"analysis_id"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analysis.Request{
		FileID:       req.FileID,
		ForceRefresh: req.ForceRefresh,
		Method:       req.Method,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, AnalyzeResponse{
		Success:    true,
		Data:       result.Report,
		Cached:     result.Cached,
		AnalysisID: result.AnalysisID,
	})
}

// ---------------------------------------------------------------------
// Health handlers
// ---------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.analyzer.CheckHealth(r.Context())
	status := http.StatusOK
	if !h.Healthy {
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, status, h)
}

func (s *Server) handleHealthDatabase(w http.ResponseWriter, r *http.Request) {
	h := s.analyzer.CheckDatabase(r.Context())
	status := http.StatusOK
	if !h.Healthy {
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, status, h)
}

func (s *Server) handleHealthVision(w http.ResponseWriter, r *http.Request) {
	h := s.analyzer.CheckVision(r.Context())
	status := http.StatusOK
	if !h.Healthy {
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, status, h)
}

// ---------------------------------------------------------------------
// Admin handlers
// ---------------------------------------------------------------------

// CleanupResponse reports what the maintenance pass removed.
type CleanupResponse struct {
	Success          bool  `json:"success"`
	ExpiredCacheRows int64 `json:"expired_cache_rows"`
	StaleRateWindows int64 `json:"stale_rate_windows"`
}

func (s *Server) handleAdminCleanup(w http.ResponseWriter, r *http.Request) {
	cacheRows, err := s.cache.PurgeExpired(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	windows, err := s.store.DeleteRateWindowsEndedBefore(r.Context(), time.Now().Add(-ratelimit.Window))
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, CleanupResponse{
		Success:          true,
		ExpiredCacheRows: cacheRows,
		StaleRateWindows: windows,
	})
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.InvalidateAll(r.Context()); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
