package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"document-retrieval-gateway/internal/ai"
	"document-retrieval-gateway/internal/config"
	"document-retrieval-gateway/internal/datastore"
	"document-retrieval-gateway/internal/datastore/memorystore"
	"document-retrieval-gateway/internal/datastore/mongostore"
	"document-retrieval-gateway/internal/logger"
	"document-retrieval-gateway/internal/telemetry"
	"document-retrieval-gateway/middleware"
	"document-retrieval-gateway/routes"
	"document-retrieval-gateway/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Optional tracing
	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.InitTracer("document-retrieval-gateway", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdown()
	}

	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)

	// Select the datastore backend
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
		} else {
			log.Println("GEMINI_API_KEY not set, mongo datastore will rank by keywords")
		}

		store = mongostore.New(mongoClient.Database(cfg.DBName), chunker, embedder)
	default:
		store = memorystore.New(chunker)
	}

	// Staging area for extraction steps that need file-path access
	staging, err := services.NewStaging(cfg.StagingDir)
	if err != nil {
		log.Fatal("Failed to init staging:", err)
	}

	// Sweep staged files orphaned by crashes
	scheduler := gocron.NewScheduler(time.UTC)
	sweepAge := time.Duration(cfg.StagingSweepAge) * time.Minute
	if _, err := scheduler.Every(sweepAge).Do(func() {
		if err := staging.Sweep(sweepAge); err != nil {
			log.Printf("staging sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatal("Failed to schedule staging sweep:", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	extractor := services.NewExtractor(staging)
	fetcher := services.NewFileFetcher(time.Duration(cfg.FetchTimeout)*time.Second, cfg.MaxFileSize)
	docService := services.NewDocumentService(store, extractor, fetcher)

	// Redis enables rate limiting and the async ingestion queue
	var rdb *redis.Client
	var queueClient *asynq.Client
	if cfg.RedisAddr != "" {
		rdb, err = config.NewRedisClient(cfg)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		queueClient = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer queueClient.Close()
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.OTLPEndpoint != "" {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	authMiddleware := middleware.NewAuthMiddleware(cfg)
	routes.SetupRetrievalRoutes(router, cfg, store, docService, staging, queueClient, authMiddleware)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s (datastore=%s)", cfg.Port, cfg.Datastore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
