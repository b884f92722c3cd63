// Package datastore defines the storage/retrieval backend contract consumed
// by the ingestion, retrieval, and deletion pipelines. The gateway depends
// only on these three operations and treats every provider error the same
// way: logged, then generalized for the caller.
package datastore

import (
	"context"

	"document-retrieval-gateway/models"
)

// DataStore is the backend collaborator interface.
type DataStore interface {
	// Upsert indexes documents and returns the assigned document ids.
	// Chunking parameters are provider-defined knobs; zero means default.
	Upsert(ctx context.Context, docs []models.Document, chunkSize, chunkOverlap int) ([]string, error)

	// Query runs each query against the index and returns ranked results in
	// query order.
	Query(ctx context.Context, queries []models.Query) ([]models.QueryResult, error)

	// Delete removes documents by ids, by metadata filter, or entirely.
	Delete(ctx context.Context, ids []string, filter *models.DocumentMetadataFilter, deleteAll bool) (bool, error)
}
