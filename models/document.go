package models

// Source identifies where a document originally came from.
type Source string

const (
	SourceFile  Source = "file"
	SourceEmail Source = "email"
	SourceChat  Source = "chat"
)

// DocumentMetadata is caller-supplied context attached to a document.
// The ingestion pipeline fills author/url/created_at during normalization;
// it is never mutated after the document is handed to the datastore.
type DocumentMetadata struct {
	Source    Source `json:"source,omitempty" bson:"source,omitempty"`
	SourceID  string `json:"source_id,omitempty" bson:"source_id,omitempty"`
	URL       string `json:"url,omitempty" bson:"url,omitempty"`
	CreatedAt string `json:"created_at,omitempty" bson:"created_at,omitempty"` // ISO-8601
	Author    string `json:"author,omitempty" bson:"author,omitempty"`
}

// Document is the normalized text + metadata unit handed to the datastore.
// Identity is assigned by the datastore on successful upsert.
type Document struct {
	ID       string           `json:"id,omitempty" bson:"_id,omitempty"`
	Text     string           `json:"text" bson:"text"`
	Metadata DocumentMetadata `json:"metadata" bson:"metadata"`
}

// DocumentChunk is a slice of a document's text as stored for retrieval.
// Chunking happens inside the datastore providers; the gateway never sees chunks
// except as query results.
type DocumentChunk struct {
	ID         string           `json:"id" bson:"chunk_id"`
	DocumentID string           `json:"document_id" bson:"document_id"`
	Order      int              `json:"order" bson:"order"`
	Text       string           `json:"text" bson:"text"`
	Metadata   DocumentMetadata `json:"metadata" bson:"metadata"`
	Embedding  []float32        `json:"-" bson:"embedding,omitempty"`
}

// DocumentChunkWithScore is a chunk ranked against a query.
type DocumentChunkWithScore struct {
	DocumentChunk `bson:",inline"`
	Score         float64 `json:"score" bson:"score"`
}
