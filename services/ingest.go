package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"document-retrieval-gateway/internal/datastore"
	"document-retrieval-gateway/models"
)

// ErrBackendFailed generalizes datastore errors. The underlying detail is
// logged at the pipeline boundary and never shown to callers.
var ErrBackendFailed = errors.New("datastore operation failed")

// DocumentService is the ingestion pipeline. Three entry modes (remote link,
// direct upload, pre-extracted documents) converge on one upsert call.
type DocumentService struct {
	store     datastore.DataStore
	extractor *Extractor
	fetcher   *FileFetcher
}

// NewDocumentService wires the pipeline with its collaborators.
func NewDocumentService(store datastore.DataStore, extractor *Extractor, fetcher *FileFetcher) *DocumentService {
	return &DocumentService{
		store:     store,
		extractor: extractor,
		fetcher:   fetcher,
	}
}

// DocumentFromFile detects the format, extracts text, and wraps the result in
// a Document with file-source metadata. Extraction failure means no document
// is constructed at all; an extraction that yields nothing but whitespace is
// treated the same way so an empty document can never reach the datastore.
func (ds *DocumentService) DocumentFromFile(ctx context.Context, content []byte, contentType, filename string) (models.Document, error) {
	format, err := DetectFormat(contentType, filename)
	if err != nil {
		return models.Document{}, err
	}

	text, err := ds.extractor.ExtractText(ctx, content, format)
	if err != nil {
		return models.Document{}, err
	}
	if strings.TrimSpace(text) == "" {
		return models.Document{}, fmt.Errorf("%w: no text content in %s file", ErrExtractionFailed, format)
	}

	return models.Document{
		Text:     text,
		Metadata: models.DocumentMetadata{Source: models.SourceFile},
	}, nil
}

// IngestLink fetches a remote file and ingests it. Fetch failure aborts
// before extraction; no partial document is ever built.
func (ds *DocumentService) IngestLink(ctx context.Context, req models.UpsertFileLinkRequest) ([]string, error) {
	fetched, err := ds.fetcher.Fetch(ctx, req.FileLink)
	if err != nil {
		return nil, err
	}

	doc, err := ds.DocumentFromFile(ctx, fetched.Content, fetched.ContentType, fetched.Filename)
	if err != nil {
		return nil, err
	}

	doc.Metadata.Author = req.Author
	doc.Metadata.URL = req.FileLink
	doc.Metadata.CreatedAt = req.CreatedAt

	return ds.upsert(ctx, []models.Document{doc}, req.ChunkSize, req.ChunkOverlap)
}

// IngestUpload ingests directly supplied bytes. The author always overwrites;
// the URL is set only when the caller provided one.
func (ds *DocumentService) IngestUpload(ctx context.Context, content []byte, contentType, filename, author, url string, chunkSize, chunkOverlap int) ([]string, error) {
	doc, err := ds.DocumentFromFile(ctx, content, contentType, filename)
	if err != nil {
		return nil, err
	}

	doc.Metadata.Author = author
	if url != "" {
		doc.Metadata.URL = url
	}

	return ds.upsert(ctx, []models.Document{doc}, chunkSize, chunkOverlap)
}

// IngestDocuments passes pre-extracted documents straight to the datastore.
// Documents without a source default to file.
func (ds *DocumentService) IngestDocuments(ctx context.Context, docs []models.Document, chunkSize, chunkOverlap int) ([]string, error) {
	for i := range docs {
		if docs[i].Metadata.Source == "" {
			docs[i].Metadata.Source = models.SourceFile
		}
	}
	return ds.upsert(ctx, docs, chunkSize, chunkOverlap)
}

func (ds *DocumentService) upsert(ctx context.Context, docs []models.Document, chunkSize, chunkOverlap int) ([]string, error) {
	ids, err := ds.store.Upsert(ctx, docs, chunkSize, chunkOverlap)
	if err != nil {
		log.Printf("ingest: datastore upsert failed: %v", err)
		return nil, ErrBackendFailed
	}
	return ids, nil
}
