package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"
)

const docConvertTimeout = 30 * time.Second

// extractLegacyDoc handles the one format with no reliable in-process parser.
// The bytes are staged to a uniquely-named file, converted with antiword, and
// the converter's output decoded using auto-detected encoding with a UTF-8
// fallback. The staged file is removed on every exit path.
func (e *Extractor) extractLegacyDoc(ctx context.Context, content []byte) (string, error) {
	if _, err := exec.LookPath("antiword"); err != nil {
		return "", fmt.Errorf("%w: antiword not available: %v", ErrExtractionFailed, err)
	}

	path, release, err := e.staging.Stage(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer release()

	convertCtx, cancel := context.WithTimeout(ctx, docConvertTimeout)
	defer cancel()

	cmd := exec.CommandContext(convertCtx, "antiword", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: antiword: %v: %s", ErrExtractionFailed, err, stderr.String())
	}

	return decodeWithDetectedCharset(stdout.Bytes())
}

// decodeWithDetectedCharset decodes raw converter output using chardet's best
// guess, falling back to UTF-8 when detection is inconclusive or the charset
// has no registered decoder.
func decodeWithDetectedCharset(raw []byte) (string, error) {
	detected, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || detected == nil || detected.Charset == "" {
		return decodeUTF8Fallback(raw)
	}

	enc, err := ianaindex.IANA.Encoding(detected.Charset)
	if err != nil || enc == nil {
		return decodeUTF8Fallback(raw)
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s output: %v", ErrExtractionFailed, detected.Charset, err)
	}
	return string(decoded), nil
}

func decodeUTF8Fallback(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: converter output is not valid utf-8", ErrExtractionFailed)
	}
	return string(raw), nil
}
