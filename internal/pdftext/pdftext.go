// Package pdftext turns an in-memory PDF into plain text.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Extract validates the bytes as a PDF and returns the concatenated plain
// text of all pages. It fails if the bytes are not a structurally valid PDF
// or if no text at all can be extracted (scanned-image PDFs end up here).
func Extract(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty document")
	}

	// Structural validation first, in relaxed mode: real-world court filings
	// are frequently produced by sloppy generators.
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), cfg); err != nil {
		return "", fmt.Errorf("not a valid PDF: %w", err)
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), cfg)
	if err != nil {
		return "", fmt.Errorf("failed to read page count: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF for text extraction: %w", err)
	}

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A single broken page should not sink a filing with hundreds
			// of readable ones.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	content := sb.String()
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("no extractable text in %d-page PDF", pageCount)
	}
	return content, nil
}
