package services

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
)

// Format identifies a supported document type. The set is closed: anything the
// detector cannot map onto one of these values is rejected outright.
type Format string

const (
	FormatPDF       Format = "pdf"
	FormatPlainText Format = "text"
	FormatDocx      Format = "docx"
	FormatDocLegacy Format = "doc"
	FormatCSV       Format = "csv"
	FormatPptx      Format = "pptx"
)

// Extraction error taxonomy. Routes translate these into status codes;
// nothing below the gateway speaks HTTP.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrFetchFailed       = errors.New("file fetch failed")
)

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// DetectFormat maps a declared content type, or failing that a filename
// extension, onto a supported Format. A recognized content type wins; an
// unrecognized or absent one falls back to the extension. Markdown is treated
// as plain text.
func DetectFormat(contentType, filename string) (Format, error) {
	if contentType != "" {
		// Strip parameters such as ";charset=utf-8".
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if f, ok := formatForMediaType(mediaType); ok {
				return f, nil
			}
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".txt", ".text", ".md", ".markdown":
		return FormatPlainText, nil
	case ".docx":
		return FormatDocx, nil
	case ".doc":
		return FormatDocLegacy, nil
	case ".csv":
		return FormatCSV, nil
	case ".pptx":
		return FormatPptx, nil
	}

	return "", ErrUnsupportedFormat
}

func formatForMediaType(mediaType string) (Format, bool) {
	switch mediaType {
	case "application/pdf":
		return FormatPDF, true
	case "text/plain", "text/markdown":
		return FormatPlainText, true
	case mimeDocx:
		return FormatDocx, true
	case "application/msword":
		return FormatDocLegacy, true
	case "text/csv":
		return FormatCSV, true
	case mimePptx:
		return FormatPptx, true
	}
	return "", false
}
