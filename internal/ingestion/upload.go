// Package ingestion validates uploaded design files and derives their
// content identity.
package ingestion

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFileSize caps uploads at 50MB; generous so high-resolution exports
// keep their quality.
const MaxFileSize = 50 * 1024 * 1024

const (
	MimePDF = "application/pdf"
	MimePNG = "image/png"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// InvalidUploadError indicates the upload cannot be accepted. Always
// caller-fixable.
type InvalidUploadError struct {
	Reason string
}

func (e *InvalidUploadError) Error() string {
	return "invalid upload: " + e.Reason
}

// Upload is a validated file ready for storage.
type Upload struct {
	Filename     string // generated storage name
	OriginalName string
	MimeType     string
	ContentHash  string
	Size         int64
	Data         []byte
}

// HashBytes computes the hex SHA-256 content digest used as the dedup and
// cache key.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateUpload checks an uploaded file and returns it with its content
// identity. The mime type is sniffed from the bytes themselves; the client's
// declared type is only rejected when it contradicts the sniff.
func ValidateUpload(originalName, declaredType string, data []byte) (*Upload, error) {
	if len(data) == 0 {
		return nil, &InvalidUploadError{Reason: "no file provided"}
	}
	if int64(len(data)) > MaxFileSize {
		return nil, &InvalidUploadError{Reason: "file size must be less than 50MB"}
	}

	mimeType := sniffType(data)
	if mimeType == "" {
		return nil, &InvalidUploadError{Reason: "only PDF and PNG files are supported for font analysis"}
	}
	if declaredType != "" && declaredType != "application/octet-stream" && declaredType != mimeType {
		return nil, &InvalidUploadError{Reason: fmt.Sprintf("declared type %s does not match file content", declaredType)}
	}

	return &Upload{
		Filename:     generateFilename(mimeType),
		OriginalName: originalName,
		MimeType:     mimeType,
		ContentHash:  HashBytes(data),
		Size:         int64(len(data)),
		Data:         data,
	}, nil
}

// sniffType identifies the file from its magic bytes. Returns "" for
// anything that is neither PDF nor PNG.
func sniffType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return MimePDF
	case bytes.HasPrefix(data, pngMagic):
		return MimePNG
	default:
		return ""
	}
}

// generateFilename produces a unique storage name with the right extension.
func generateFilename(mimeType string) string {
	ext := ".png"
	if mimeType == MimePDF {
		ext = ".pdf"
	}
	random := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), random, ext)
}
