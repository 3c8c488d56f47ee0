package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Extracted is the plain text of one source file.
type Extracted struct {
	Text        string
	ContentType string
	FileType    string
	Pages       int
}

// Extract returns the text of a PDF or UTF-8 text file. The content type is
// sniffed from the data, falling back to the file extension.
func Extract(name string, data []byte) (Extracted, error) {
	mt := mimetype.Detect(data)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	out := Extracted{
		ContentType: mt.String(),
		FileType:    ext,
	}

	switch {
	case mt.Is("application/pdf") || ext == "pdf":
		pages, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return out, fmt.Errorf("%w: %s: %w", ErrInvalidPDF, name, err)
		}

		text, err := pdfText(data)
		if err != nil {
			return out, fmt.Errorf("%w: %s: %w", ErrInvalidPDF, name, err)
		}

		out.ContentType = "application/pdf"
		out.Pages = pages
		out.Text = text
	case utf8.Valid(data):
		out.Text = strings.ReplaceAll(string(data), "\r\n", "\n")
	default:
		return out, fmt.Errorf("%w: %s (%s)", ErrUnsupported, name, mt.String())
	}

	return out, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}
