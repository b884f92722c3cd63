package queue

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"document-retrieval-gateway/internal/datastore/memorystore"
	"document-retrieval-gateway/services"
)

func TestNewIngestFileTaskPayload(t *testing.T) {
	task, err := NewIngestFileTask(IngestFilePayload{
		StagedPath:  "/tmp/staged/abc",
		ContentType: "text/plain",
		Filename:    "notes.txt",
		Author:      "alice",
	})
	if err != nil {
		t.Fatalf("NewIngestFileTask: %v", err)
	}
	if task.Type() != TaskIngestFile {
		t.Fatalf("task type = %q", task.Type())
	}

	var payload IngestFilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.StagedPath != "/tmp/staged/abc" || payload.Author != "alice" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestProcessIngestFile(t *testing.T) {
	store := memorystore.New(services.NewChunker(1000, 200))
	staging, err := services.NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	docService := services.NewDocumentService(store, services.NewExtractor(staging),
		services.NewFileFetcher(5*time.Second, 1<<20))

	path, _, err := staging.Stage([]byte("queued document text"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	task, err := NewIngestFileTask(IngestFilePayload{
		StagedPath:  path,
		ContentType: "text/plain",
		Filename:    "queued.txt",
		Author:      "alice",
	})
	if err != nil {
		t.Fatalf("NewIngestFileTask: %v", err)
	}

	processor := NewIngestProcessor(docService)
	if err := processor.ProcessIngestFile(context.Background(), task); err != nil {
		t.Fatalf("ProcessIngestFile: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("stored %d documents, want 1", store.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("staged file not removed: %v", err)
	}
}

func TestProcessIngestFileMissingStagedFile(t *testing.T) {
	store := memorystore.New(services.NewChunker(1000, 200))
	staging, err := services.NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	docService := services.NewDocumentService(store, services.NewExtractor(staging),
		services.NewFileFetcher(5*time.Second, 1<<20))

	task, err := NewIngestFileTask(IngestFilePayload{StagedPath: "/nonexistent/staged/file"})
	if err != nil {
		t.Fatalf("NewIngestFileTask: %v", err)
	}

	if err := NewIngestProcessor(docService).ProcessIngestFile(context.Background(), task); err == nil {
		t.Fatal("expected error for missing staged file")
	}
	if store.Len() != 0 {
		t.Fatalf("datastore touched: %d documents", store.Len())
	}
}
