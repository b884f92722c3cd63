package services

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Extractor turns raw file bytes into plain text. Formats that require
// file-path access (legacy .doc) go through the staging area; everything else
// is decoded in memory.
type Extractor struct {
	staging *Staging
}

// NewExtractor creates an Extractor backed by the given staging area.
func NewExtractor(staging *Staging) *Extractor {
	return &Extractor{staging: staging}
}

// ExtractText dispatches on the detected format. Unsupported formats fail with
// ErrUnsupportedFormat; decode or parse problems fail with a wrapped
// ErrExtractionFailed. An extraction error always means no document is built.
func (e *Extractor) ExtractText(ctx context.Context, content []byte, format Format) (string, error) {
	switch format {
	case FormatPDF:
		return extractPDF(content)
	case FormatPlainText:
		return extractPlainText(content)
	case FormatDocx:
		return extractDocx(content)
	case FormatDocLegacy:
		return e.extractLegacyDoc(ctx, content)
	case FormatCSV:
		return extractCSV(content)
	case FormatPptx:
		return extractPptx(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// extractPlainText decodes bytes strictly as UTF-8. No fallback transcoding:
// a bad byte sequence fails the whole extraction.
func extractPlainText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: plain text is not valid utf-8", ErrExtractionFailed)
	}
	return string(content), nil
}
