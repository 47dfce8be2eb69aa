package extract

import (
	"bytes"
	"fmt"
	"strings"

	"pdf-ingest-service/internal/logger"

	"github.com/ledongthuc/pdf"
)

// Error indicates the extraction collaborator hard-failed. A PDF that parses
// but contains no text is not an Error; that case returns empty text.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pdf extraction failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Extractor extracts plain text from PDF bytes.
type Extractor struct {
	// MaxBytes caps input size to avoid OOM on in-memory extraction.
	// Zero means no cap.
	MaxBytes int64
}

func NewExtractor(maxBytes int64) *Extractor {
	return &Extractor{MaxBytes: maxBytes}
}

// ExtractText returns the best-effort plain text of the document. Pages that
// fail to decode are skipped. A document with no extractable text returns
// ("", nil) rather than an error.
func (e *Extractor) ExtractText(content []byte) (string, error) {
	if e.MaxBytes > 0 && int64(len(content)) > e.MaxBytes {
		return "", &Error{Err: fmt.Errorf("pdf too large for in-memory extraction: %d bytes", len(content))}
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &Error{Err: fmt.Errorf("failed to create PDF reader: %w", err)}
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from page", "page", i, "err", err)
			continue
		}

		textBuilder.WriteString(text)
	}

	return textBuilder.String(), nil
}
