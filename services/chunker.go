package services

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"document-retrieval-gateway/models"
)

// Chunker splits document text into retrieval-sized chunks with paragraph and
// sentence boundary awareness. The datastore providers own chunking; the
// gateway only forwards the size/overlap knobs.
type Chunker struct {
	defaultSize    int
	defaultOverlap int
	minChunkSize   int
	sentenceRegex  *regexp.Regexp
	paragraphRegex *regexp.Regexp
}

// NewChunker creates a Chunker with default size and overlap used when a
// request does not supply its own.
func NewChunker(defaultSize, defaultOverlap int) *Chunker {
	return &Chunker{
		defaultSize:    defaultSize,
		defaultOverlap: defaultOverlap,
		minChunkSize:   100,
		sentenceRegex:  regexp.MustCompile(`[.!?]+[\s]+`),
		paragraphRegex: regexp.MustCompile(`\n\n+`),
	}
}

// Chunk splits a document's text. Zero size/overlap fall back to the
// configured defaults.
func (c *Chunker) Chunk(doc models.Document, size, overlap int) []models.DocumentChunk {
	if size <= 0 {
		size = c.defaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = c.defaultOverlap
	}

	paragraphs := filterEmpty(c.paragraphRegex.Split(doc.Text, -1))
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []models.DocumentChunk
	current := new(strings.Builder)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Order:      len(chunks),
			Text:       current.String(),
			Metadata:   doc.Metadata,
		})
		current = new(strings.Builder)
	}

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if current.Len()+len(paragraph) > size && current.Len() >= c.minChunkSize {
			tail := c.overlapText(current.String(), overlap)
			flush()
			if tail != "" {
				current.WriteString(tail)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()

	return chunks
}

// overlapText takes trailing sentences of the previous chunk, capped at
// overlapSize characters, to carry context into the next chunk.
func (c *Chunker) overlapText(text string, overlapSize int) string {
	if overlapSize <= 0 {
		return ""
	}
	if len(text) <= overlapSize {
		return text
	}

	sentences := filterEmpty(c.sentenceRegex.Split(text, -1))
	tail := ""
	for i := len(sentences) - 1; i >= 0; i-- {
		candidate := sentences[i]
		if tail != "" {
			candidate = candidate + ". " + tail
		}
		if len(candidate) > overlapSize {
			break
		}
		tail = candidate
	}
	if tail == "" {
		tail = text[len(text)-overlapSize:]
	}
	return tail
}

func filterEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
