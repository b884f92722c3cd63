// Package memorystore is an in-process DataStore for development and tests.
// Ranking is keyword overlap, not semantic similarity; it exists so the
// gateway can run without external services.
package memorystore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"document-retrieval-gateway/models"
	"document-retrieval-gateway/services"
)

type Store struct {
	mu      sync.RWMutex
	docs    map[string]models.Document
	chunks  map[string][]models.DocumentChunk // document id -> chunks
	chunker *services.Chunker
}

func New(chunker *services.Chunker) *Store {
	return &Store{
		docs:    make(map[string]models.Document),
		chunks:  make(map[string][]models.DocumentChunk),
		chunker: chunker,
	}
}

func (s *Store) Upsert(ctx context.Context, docs []models.Document, chunkSize, chunkOverlap int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		s.docs[doc.ID] = doc
		s.chunks[doc.ID] = s.chunker.Chunk(doc, chunkSize, chunkOverlap)
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (s *Store) Query(ctx context.Context, queries []models.Query) ([]models.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.QueryResult, 0, len(queries))
	for _, q := range queries {
		topK := q.TopK
		if topK <= 0 {
			topK = 3
		}

		scored := []models.DocumentChunkWithScore{}
		for _, chunks := range s.chunks {
			for _, chunk := range chunks {
				if !matchesFilter(chunk, q.Filter) {
					continue
				}
				score := overlapScore(q.Query, chunk.Text)
				if score > 0 {
					scored = append(scored, models.DocumentChunkWithScore{
						DocumentChunk: chunk,
						Score:         score,
					})
				}
			}
		}

		sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
		if len(scored) > topK {
			scored = scored[:topK]
		}
		results = append(results, models.QueryResult{Query: q.Query, Results: scored})
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, ids []string, filter *models.DocumentMetadataFilter, deleteAll bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deleteAll {
		s.docs = make(map[string]models.Document)
		s.chunks = make(map[string][]models.DocumentChunk)
		return true, nil
	}

	for _, id := range ids {
		delete(s.docs, id)
		delete(s.chunks, id)
	}

	if filter != nil {
		for id, doc := range s.docs {
			if metadataMatches(doc.ID, doc.Metadata, filter) {
				delete(s.docs, id)
				delete(s.chunks, id)
			}
		}
	}
	return true, nil
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func matchesFilter(chunk models.DocumentChunk, filter *models.DocumentMetadataFilter) bool {
	if filter == nil {
		return true
	}
	return metadataMatches(chunk.DocumentID, chunk.Metadata, filter)
}

func metadataMatches(documentID string, md models.DocumentMetadata, filter *models.DocumentMetadataFilter) bool {
	if filter.DocumentID != "" && filter.DocumentID != documentID {
		return false
	}
	if filter.Source != "" && filter.Source != md.Source {
		return false
	}
	if filter.SourceID != "" && filter.SourceID != md.SourceID {
		return false
	}
	if filter.Author != "" && filter.Author != md.Author {
		return false
	}
	if filter.StartDate != "" && md.CreatedAt < filter.StartDate {
		return false
	}
	if filter.EndDate != "" && md.CreatedAt > filter.EndDate {
		return false
	}
	return true
}

func overlapScore(query, text string) float64 {
	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return 0
	}
	haystack := strings.ToLower(text)
	hits := 0
	for _, w := range queryWords {
		if strings.Contains(haystack, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryWords))
}
