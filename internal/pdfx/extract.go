// Package pdfx extracts plain text from PDF documents for summarization.
package pdfx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"go.uber.org/zap"

	"github.com/gemtutor-ai/gemtutor/internal/logging"
)

// ErrNoText indicates the PDF parsed fine but yielded no extractable text,
// which usually means an image-only (scanned) document.
var ErrNoText = errors.New("no text content extracted; the PDF may be image-based or empty")

// ExtractText returns the concatenated plain text of every page in the PDF.
func ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logging.L().Warn("skipping unreadable pdf page",
				zap.String("path", path), zap.Int("page", i), zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := sb.String()
	logging.L().Info("extracted pdf text",
		zap.String("path", path), zap.Int("pages", total), zap.Int("chars", len(out)))

	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return out, nil
}

// ExtractAll extracts text from several PDFs, returning the extracted texts
// alongside per-file errors. texts holds one entry per successful file.
func ExtractAll(paths []string) (texts []string, errs []error) {
	for _, p := range paths {
		text, err := ExtractText(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		texts = append(texts, text)
	}
	return texts, errs
}
