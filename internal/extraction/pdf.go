package extraction

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfPage adapts one parsed PDF page to the Page iterator.
type pdfPage struct {
	runs []TextRun
}

func (p *pdfPage) Runs() []TextRun {
	return p.runs
}

// pdfDocument holds the fully materialized pages of a PDF.
type pdfDocument struct {
	pages []Page
}

func (d *pdfDocument) Pages() []Page {
	return d.pages
}

// ParsePDF parses raw PDF bytes into a Document of text runs.
//
// The pdf library reports a run's width but not its rendered height; the
// declared point size is used as the height, which is what the position is
// consumed for downstream.
func ParsePDF(data []byte) (doc Document, err error) {
	// The pdf library panics on some malformed inputs. Convert those to a
	// ParseError so callers see one failure mode.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &ParseError{Message: fmt.Sprintf("malformed PDF: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{Message: "unreadable PDF", Cause: err}
	}

	pages := make([]Page, 0, reader.NumPage())
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		runs := make([]TextRun, 0, len(content.Text))
		for _, text := range content.Text {
			runs = append(runs, TextRun{
				Text:     text.S,
				FontName: text.Font,
				FontSize: text.FontSize,
				X:        text.X,
				Y:        text.Y,
				W:        text.W,
				H:        text.FontSize,
			})
		}
		pages = append(pages, &pdfPage{runs: runs})
	}

	return &pdfDocument{pages: pages}, nil
}
