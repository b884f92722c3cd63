package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"document-retrieval-gateway/internal/ai"
	"document-retrieval-gateway/internal/config"
	"document-retrieval-gateway/internal/datastore"
	"document-retrieval-gateway/internal/datastore/memorystore"
	"document-retrieval-gateway/internal/datastore/mongostore"
	"document-retrieval-gateway/internal/queue"
	"document-retrieval-gateway/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required for the worker")
	}

	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)

	var store datastore.DataStore
	switch cfg.Datastore {
	case "mongo":
		mongoClient, err := config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()

		var embedder *ai.EmbeddingClient
		if cfg.GeminiAPIKey != "" {
			embedder, err = ai.NewEmbeddingClient(context.Background(), cfg.GeminiAPIKey, cfg.EmbeddingsModel)
			if err != nil {
				log.Fatal("Failed to init embedding client:", err)
			}
			defer embedder.Close()
		}

		store = mongostore.New(mongoClient.Database(cfg.DBName), chunker, embedder)
	default:
		log.Println("Warning: memory datastore in the worker indexes into a store the API cannot see")
		store = memorystore.New(chunker)
	}

	staging, err := services.NewStaging(cfg.StagingDir)
	if err != nil {
		log.Fatal("Failed to init staging:", err)
	}

	extractor := services.NewExtractor(staging)
	fetcher := services.NewFileFetcher(time.Duration(cfg.FetchTimeout)*time.Second, cfg.MaxFileSize)
	docService := services.NewDocumentService(store, extractor, fetcher)

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task failed: %s, error: %v", task.Type(), err)
			}),
		},
	)

	processor := queue.NewIngestProcessor(docService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestFile, processor.ProcessIngestFile)

	log.Println("Starting ingestion worker...")
	log.Printf("   Redis: %s", cfg.RedisAddr)
	if err := server.Run(mux); err != nil {
		log.Fatal("Worker failed:", err)
	}
}
