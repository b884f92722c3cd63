// Package mongostore is the MongoDB-backed DataStore provider. Documents and
// their chunks live in separate collections; chunks carry optional embedding
// vectors ranked in-process with cosine similarity.
package mongostore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"document-retrieval-gateway/internal/ai"
	"document-retrieval-gateway/models"
	"document-retrieval-gateway/services"
)

const (
	documentsCollection = "documents"
	chunksCollection    = "document_chunks"
)

// Store implements datastore.DataStore on MongoDB.
type Store struct {
	docs     *mongo.Collection
	chunks   *mongo.Collection
	chunker  *services.Chunker
	embedder *ai.EmbeddingClient // nil disables vector ranking
}

// New builds a Store over the given database. embedder may be nil, in which
// case queries fall back to keyword-overlap ranking.
func New(db *mongo.Database, chunker *services.Chunker, embedder *ai.EmbeddingClient) *Store {
	return &Store{
		docs:     db.Collection(documentsCollection),
		chunks:   db.Collection(chunksCollection),
		chunker:  chunker,
		embedder: embedder,
	}
}

func (s *Store) Upsert(ctx context.Context, docs []models.Document, chunkSize, chunkOverlap int) ([]string, error) {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}

		chunks := s.chunker.Chunk(doc, chunkSize, chunkOverlap)
		if s.embedder != nil {
			for i := range chunks {
				vec, err := s.embedder.Embed(ctx, chunks[i].Text)
				if err != nil {
					return nil, fmt.Errorf("embed chunk %d of %s: %w", i, doc.ID, err)
				}
				chunks[i].Embedding = vec
			}
		}

		opts := options.Replace().SetUpsert(true)
		if _, err := s.docs.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
			return nil, fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}

		// Re-upserting a document replaces its chunk set wholesale.
		if _, err := s.chunks.DeleteMany(ctx, bson.M{"document_id": doc.ID}); err != nil {
			return nil, fmt.Errorf("clear chunks for %s: %w", doc.ID, err)
		}
		if len(chunks) > 0 {
			payload := make([]interface{}, len(chunks))
			for i, c := range chunks {
				payload[i] = c
			}
			if _, err := s.chunks.InsertMany(ctx, payload); err != nil {
				return nil, fmt.Errorf("insert chunks for %s: %w", doc.ID, err)
			}
		}

		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (s *Store) Query(ctx context.Context, queries []models.Query) ([]models.QueryResult, error) {
	results := make([]models.QueryResult, 0, len(queries))
	for _, q := range queries {
		topK := q.TopK
		if topK <= 0 {
			topK = 3
		}

		var queryVec []float32
		if s.embedder != nil {
			vec, err := s.embedder.Embed(ctx, q.Query)
			if err != nil {
				return nil, fmt.Errorf("embed query: %w", err)
			}
			queryVec = vec
		}

		cursor, err := s.chunks.Find(ctx, chunkFilter(q.Filter))
		if err != nil {
			return nil, fmt.Errorf("find chunks: %w", err)
		}

		scored := []models.DocumentChunkWithScore{}
		for cursor.Next(ctx) {
			var chunk models.DocumentChunk
			if err := cursor.Decode(&chunk); err != nil {
				cursor.Close(ctx)
				return nil, fmt.Errorf("decode chunk: %w", err)
			}

			var score float64
			if queryVec != nil && len(chunk.Embedding) > 0 {
				score = cosineSimilarity(queryVec, chunk.Embedding)
			} else {
				score = keywordScore(q.Query, chunk.Text)
			}
			if score > 0 {
				scored = append(scored, models.DocumentChunkWithScore{
					DocumentChunk: chunk,
					Score:         score,
				})
			}
		}
		if err := cursor.Err(); err != nil {
			cursor.Close(ctx)
			return nil, fmt.Errorf("iterate chunks: %w", err)
		}
		cursor.Close(ctx)

		sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
		if len(scored) > topK {
			scored = scored[:topK]
		}
		results = append(results, models.QueryResult{Query: q.Query, Results: scored})
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, ids []string, filter *models.DocumentMetadataFilter, deleteAll bool) (bool, error) {
	if deleteAll {
		if _, err := s.docs.DeleteMany(ctx, bson.M{}); err != nil {
			return false, fmt.Errorf("delete documents: %w", err)
		}
		if _, err := s.chunks.DeleteMany(ctx, bson.M{}); err != nil {
			return false, fmt.Errorf("delete chunks: %w", err)
		}
		return true, nil
	}

	if len(ids) > 0 {
		if _, err := s.docs.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
			return false, fmt.Errorf("delete documents by id: %w", err)
		}
		if _, err := s.chunks.DeleteMany(ctx, bson.M{"document_id": bson.M{"$in": ids}}); err != nil {
			return false, fmt.Errorf("delete chunks by id: %w", err)
		}
	}

	if filter != nil {
		docFilter, chunkF := documentFilter(filter), chunkFilter(filter)
		if _, err := s.docs.DeleteMany(ctx, docFilter); err != nil {
			return false, fmt.Errorf("delete documents by filter: %w", err)
		}
		if _, err := s.chunks.DeleteMany(ctx, chunkF); err != nil {
			return false, fmt.Errorf("delete chunks by filter: %w", err)
		}
	}

	return true, nil
}

func chunkFilter(f *models.DocumentMetadataFilter) bson.M {
	out := bson.M{}
	if f == nil {
		return out
	}
	if f.DocumentID != "" {
		out["document_id"] = f.DocumentID
	}
	addMetadataFilter(out, f)
	return out
}

func documentFilter(f *models.DocumentMetadataFilter) bson.M {
	out := bson.M{}
	if f == nil {
		return out
	}
	if f.DocumentID != "" {
		out["_id"] = f.DocumentID
	}
	addMetadataFilter(out, f)
	return out
}

func addMetadataFilter(out bson.M, f *models.DocumentMetadataFilter) {
	if f.Source != "" {
		out["metadata.source"] = f.Source
	}
	if f.SourceID != "" {
		out["metadata.source_id"] = f.SourceID
	}
	if f.Author != "" {
		out["metadata.author"] = f.Author
	}
	created := bson.M{}
	if f.StartDate != "" {
		created["$gte"] = f.StartDate
	}
	if f.EndDate != "" {
		created["$lte"] = f.EndDate
	}
	if len(created) > 0 {
		out["metadata.created_at"] = created
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func keywordScore(query, text string) float64 {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return 0
	}
	haystack := strings.ToLower(text)
	hits := 0
	for _, w := range words {
		if strings.Contains(haystack, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}
