package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	staging, err := NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("staging init: %v", err)
	}
	return NewExtractor(staging)
}

func TestExtractPlainText(t *testing.T) {
	e := newTestExtractor(t)

	text, err := e.ExtractText(context.Background(), []byte("hello world"), FormatPlainText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("got %q", text)
	}
}

func TestExtractPlainTextInvalidUTF8(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractText(context.Background(), []byte{0xff, 0xfe, 0x41}, FormatPlainText)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}
}

func TestExtractPlainTextDeterministic(t *testing.T) {
	e := newTestExtractor(t)
	content := []byte("same bytes, same text")

	first, err := e.ExtractText(context.Background(), content, FormatPlainText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.ExtractText(context.Background(), content, FormatPlainText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("extraction not deterministic: %q vs %q", first, second)
	}
}

func TestExtractCSV(t *testing.T) {
	e := newTestExtractor(t)

	text, err := e.ExtractText(context.Background(), []byte("a,b\nc,d"), FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "a b\nc d\n" {
		t.Fatalf("got %q, want %q", text, "a b\nc d\n")
	}
}

func TestExtractCSVMalformedRowSkipped(t *testing.T) {
	e := newTestExtractor(t)

	// The quoted row is malformed; the rows around it still come through.
	input := "a,b\n\"bad,row\nc,d\n"
	text, err := e.ExtractText(context.Background(), []byte(input), FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "a b") {
		t.Fatalf("missing first row in %q", text)
	}
}

func TestExtractCSVInvalidUTF8(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractText(context.Background(), []byte{0x61, 0x2c, 0xff, 0x0a}, FormatCSV)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	e := newTestExtractor(t)

	document := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`
	content := buildZip(t, map[string]string{"word/document.xml": document})

	text, err := e.ExtractText(context.Background(), content, FormatDocx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "First paragraph.") {
		t.Fatalf("missing first paragraph in %q", text)
	}
	if !strings.Contains(text, "Second paragraph.") {
		t.Fatalf("runs not joined in %q", text)
	}
	if !strings.Contains(text, "First paragraph.\n") {
		t.Fatalf("paragraphs not newline-separated in %q", text)
	}
}

func TestExtractDocxMissingDocument(t *testing.T) {
	e := newTestExtractor(t)
	content := buildZip(t, map[string]string{"other.xml": "<x/>"})

	_, err := e.ExtractText(context.Background(), content, FormatDocx)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}
}

func TestExtractDocxCorrupt(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractText(context.Background(), []byte("not a zip"), FormatDocx)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}
}

func slideXML(runs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, r := range runs {
		sb.WriteString(`<a:p><a:r><a:t>` + r + `</a:t></a:r></a:p>`)
	}
	sb.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`)
	return sb.String()
}

func TestExtractPptx(t *testing.T) {
	e := newTestExtractor(t)

	content := buildZip(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML("Title", "Body"),
		"ppt/slides/slide2.xml": slideXML("Closing"),
	})

	text, err := e.ExtractText(context.Background(), content, FormatPptx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Runs get a trailing space, each shape's paragraphs end with a newline.
	if text != "Title Body \nClosing \n" {
		t.Fatalf("got %q", text)
	}
}

func TestExtractPptxSlideOrder(t *testing.T) {
	e := newTestExtractor(t)

	// slide10 must sort after slide2, not lexicographically.
	content := buildZip(t, map[string]string{
		"ppt/slides/slide10.xml": slideXML("ten"),
		"ppt/slides/slide2.xml":  slideXML("two"),
		"ppt/slides/slide1.xml":  slideXML("one"),
	})

	text, err := e.ExtractText(context.Background(), content, FormatPptx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "one \ntwo \nten \n" {
		t.Fatalf("got %q", text)
	}
}

func TestExtractPptxShapeWithoutTextFrame(t *testing.T) {
	e := newTestExtractor(t)

	slide := `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:pic><p:nvPicPr/></p:pic></p:spTree></p:cSld>
</p:sld>`
	content := buildZip(t, map[string]string{"ppt/slides/slide1.xml": slide})

	text, err := e.ExtractText(context.Background(), content, FormatPptx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Fatalf("shape without text frame contributed %q", text)
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractText(context.Background(), []byte("x"), Format("xls"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractPDFCorrupt(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractText(context.Background(), []byte("definitely not a pdf"), FormatPDF)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}
}
