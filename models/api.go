package models

// DocumentMetadataFilter narrows queries and deletions by metadata fields.
// All fields are conjunctive; zero values mean "no constraint".
type DocumentMetadataFilter struct {
	DocumentID string `json:"document_id,omitempty" bson:"document_id,omitempty"`
	Source     Source `json:"source,omitempty" bson:"source,omitempty"`
	SourceID   string `json:"source_id,omitempty" bson:"source_id,omitempty"`
	Author     string `json:"author,omitempty" bson:"author,omitempty"`
	StartDate  string `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty" bson:"end_date,omitempty"`
}

// Query is a single retrieval request: natural-language text plus an
// optional metadata filter.
type Query struct {
	Query  string                  `json:"query" binding:"required"`
	Filter *DocumentMetadataFilter `json:"filter,omitempty"`
	TopK   int                     `json:"top_k,omitempty"`
}

// QueryResult pairs a query with its ranked matches.
type QueryResult struct {
	Query   string                   `json:"query"`
	Results []DocumentChunkWithScore `json:"results"`
}

// UpsertRequest carries pre-extracted documents plus chunking knobs that are
// opaque to the gateway and passed through to the datastore.
type UpsertRequest struct {
	Documents    []Document `json:"documents" binding:"required"`
	ChunkSize    int        `json:"chunk_size,omitempty"`
	ChunkOverlap int        `json:"chunk_overlap,omitempty"`
}

type UpsertResponse struct {
	IDs []string `json:"ids"`
}

type QueryRequest struct {
	Queries []Query `json:"queries" binding:"required"`
}

type QueryResponse struct {
	Results []QueryResult `json:"results"`
}

// DeleteRequest must carry at least one of IDs, Filter, or DeleteAll.
type DeleteRequest struct {
	IDs       []string                `json:"ids,omitempty"`
	Filter    *DocumentMetadataFilter `json:"filter,omitempty"`
	DeleteAll bool                    `json:"delete_all,omitempty"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

// UpsertFileLinkRequest ingests a remote file by URL.
type UpsertFileLinkRequest struct {
	FileLink     string `json:"file_link" binding:"required"`
	Author       string `json:"author" binding:"required"`
	CreatedAt    string `json:"created_at" binding:"required"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
}
