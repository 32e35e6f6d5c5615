// Package render normalizes uploaded files into PNG images for the vision
// analysis path.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ConversionTimeout bounds the external PDF rasterizer.
	ConversionTimeout = 30 * time.Second

	// conversionDPI keeps text crisp enough for font size comparison.
	conversionDPI = "300"
)

// RenderError indicates the file could not be converted to an image.
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render failed: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Render converts raw file bytes into PNG bytes for vision analysis.
// PNG input is verified and passed through unmodified to preserve quality;
// PDF input has its first page rasterized at high DPI.
func Render(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	switch mimeType {
	case "image/png":
		if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, &RenderError{Message: "invalid PNG data", Cause: err}
		}
		return data, nil
	case "application/pdf":
		return renderPDF(ctx, data)
	default:
		return nil, &RenderError{Message: fmt.Sprintf("unsupported file type %s", mimeType)}
	}
}

// renderPDF rasterizes the first PDF page with pdftoppm.
func renderPDF(ctx context.Context, data []byte) ([]byte, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, &RenderError{
			Message: "pdftoppm not found in PATH. Please install poppler-utils",
			Cause:   err,
		}
	}

	workDir, err := os.MkdirTemp("", "typoscope-render-*")
	if err != nil {
		return nil, &RenderError{Message: "failed to create temporary working directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	pdfPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0644); err != nil {
		return nil, &RenderError{Message: "failed to write PDF to working directory", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, ConversionTimeout)
	defer cancel()

	outPrefix := filepath.Join(workDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png", "-r", conversionDPI, "-f", "1", "-l", "1", "-singlefile",
		pdfPath, outPrefix,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &RenderError{
			Message: fmt.Sprintf("pdftoppm failed: %s", strings.TrimSpace(stderr.String())),
			Cause:   err,
		}
	}

	out, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, &RenderError{Message: "pdftoppm produced no output", Cause: err}
	}
	return out, nil
}
