package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPptx walks every slide in deck order. For each shape with a text
// frame, each run's text is appended followed by a space, and a newline closes
// out the shape's paragraphs. Shapes without text frames contribute nothing.
func extractPptx(content []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open pptx archive: %v", ErrExtractionFailed, err)
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range r.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var sb strings.Builder
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: open slide %d: %v", ErrExtractionFailed, s.num, err)
		}
		err = collectSlideText(rc, &sb)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: parse slide %d: %v", ErrExtractionFailed, s.num, err)
		}
	}

	return sb.String(), nil
}

func collectSlideText(r io.Reader, sb *strings.Builder) error {
	decoder := xml.NewDecoder(r)
	var inFrame, inText bool

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "txBody":
				inFrame = true
			case "t":
				inText = inFrame
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if inText {
					sb.WriteByte(' ')
				}
				inText = false
			case "txBody":
				if inFrame {
					sb.WriteByte('\n')
				}
				inFrame = false
			}
		}
	}
}
