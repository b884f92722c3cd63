package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"document-retrieval-gateway/services"
)

const TaskIngestFile = "ingest:file"

// IngestFilePayload points at a staged upload waiting to be extracted and
// indexed. The worker owns the staged file and removes it when done.
type IngestFilePayload struct {
	StagedPath   string `json:"staged_path"`
	ContentType  string `json:"content_type"`
	Filename     string `json:"filename"`
	Author       string `json:"author"`
	URL          string `json:"url,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
}

// NewIngestFileTask builds the asynq task for a staged upload.
func NewIngestFileTask(payload IngestFilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestFile,
		data,
		asynq.MaxRetry(0), // ingestion failures are terminal, callers own retry policy
		asynq.Timeout(5*time.Minute),
		asynq.Queue("default"),
	), nil
}

// IngestProcessor handles queued ingestion tasks.
type IngestProcessor struct {
	docService *services.DocumentService
}

func NewIngestProcessor(docService *services.DocumentService) *IngestProcessor {
	return &IngestProcessor{docService: docService}
}

// ProcessIngestFile runs the same pipeline as the synchronous upload path.
// The staged file is removed whether ingestion succeeds or fails.
func (p *IngestProcessor) ProcessIngestFile(ctx context.Context, task *asynq.Task) error {
	var payload IngestFilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	defer func() {
		if err := os.Remove(payload.StagedPath); err != nil && !os.IsNotExist(err) {
			log.Printf("worker: failed to remove staged file %s: %v", payload.StagedPath, err)
		}
	}()

	content, err := os.ReadFile(payload.StagedPath)
	if err != nil {
		return fmt.Errorf("read staged file: %w", err)
	}

	ids, err := p.docService.IngestUpload(ctx, content, payload.ContentType, payload.Filename,
		payload.Author, payload.URL, payload.ChunkSize, payload.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", payload.Filename, err)
	}

	log.Printf("worker: ingested %s as %v", payload.Filename, ids)
	return nil
}
