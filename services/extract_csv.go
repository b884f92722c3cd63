package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// extractCSV joins fields with a single space and rows with a newline.
// Malformed rows are skipped rather than aborting the file, so a partially
// corrupt CSV still yields the readable rows.
func extractCSV(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: csv is not valid utf-8", ErrExtractionFailed)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	var sb strings.Builder
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Best-effort: drop the bad row, keep going.
			continue
		}
		sb.WriteString(strings.Join(row, " "))
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}
