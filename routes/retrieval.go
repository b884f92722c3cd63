package routes

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"document-retrieval-gateway/internal/config"
	"document-retrieval-gateway/internal/datastore"
	"document-retrieval-gateway/internal/queue"
	"document-retrieval-gateway/middleware"
	"document-retrieval-gateway/models"
	"document-retrieval-gateway/services"
	"document-retrieval-gateway/utils"
)

// SetupRetrievalRoutes registers the ingestion, query, and deletion endpoints.
// Every route sits behind the bearer-token middleware; queueClient may be nil,
// which disables the async upload endpoint.
func SetupRetrievalRoutes(
	router *gin.Engine,
	cfg *config.Config,
	store datastore.DataStore,
	docService *services.DocumentService,
	staging *services.Staging,
	queueClient *asynq.Client,
	authMiddleware *middleware.AuthMiddleware,
) {
	api := router.Group("/")
	api.Use(authMiddleware.RequireAuth())

	api.POST("/upsert-file-link", handleUpsertFileLink(docService))
	api.POST("/upsert-file", handleUpsertFile(cfg, docService))
	api.POST("/upsert", handleUpsert(docService))
	api.POST("/query", handleQuery(store))
	api.DELETE("/delete", handleDelete(store))

	if queueClient != nil {
		api.POST("/upsert-file-async", handleUpsertFileAsync(cfg, staging, queueClient))
	}
}

func handleUpsertFileLink(docService *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpsertFileLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		ids, err := docService.IngestLink(ctx, req)
		if err != nil {
			respondIngestionError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.UpsertResponse{IDs: ids})
	}
}

func handleUpsertFile(cfg *config.Config, docService *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		content, contentType, filename, ok := readUploadedFile(c, cfg.MaxFileSize)
		if !ok {
			return
		}

		author := c.PostForm("author")
		if author == "" {
			utils.RespondWithBadRequest(c, "author is required", nil)
			return
		}
		url := c.PostForm("url")
		chunkSize := formInt(c, "chunk_size")
		chunkOverlap := formInt(c, "chunk_overlap")

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		ids, err := docService.IngestUpload(ctx, content, contentType, filename, author, url, chunkSize, chunkOverlap)
		if err != nil {
			respondIngestionError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.UpsertResponse{IDs: ids})
	}
}

func handleUpsert(docService *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpsertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}
		for _, doc := range req.Documents {
			if doc.Text == "" {
				utils.RespondWithBadRequest(c, "documents must have non-empty text", nil)
				return
			}
		}

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		ids, err := docService.IngestDocuments(ctx, req.Documents, req.ChunkSize, req.ChunkOverlap)
		if err != nil {
			respondIngestionError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.UpsertResponse{IDs: ids})
	}
}

func handleQuery(store datastore.DataStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		results, err := store.Query(ctx, req.Queries)
		if err != nil {
			log.Printf("query: datastore error: %v", err)
			utils.RespondWithInternalError(c, "Internal Service Error", nil)
			return
		}
		c.JSON(http.StatusOK, models.QueryResponse{Results: results})
	}
}

func handleDelete(store datastore.DataStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}
		if len(req.IDs) == 0 && req.Filter == nil && !req.DeleteAll {
			utils.RespondWithBadRequest(c, "One of ids, filter, or delete_all is required", nil)
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		success, err := store.Delete(ctx, req.IDs, req.Filter, req.DeleteAll)
		if err != nil {
			log.Printf("delete: datastore error: %v", err)
			utils.RespondWithInternalError(c, "Internal Service Error", nil)
			return
		}
		c.JSON(http.StatusOK, models.DeleteResponse{Success: success})
	}
}

// handleUpsertFileAsync stages the upload on disk and queues it for the
// ingestion worker. The worker releases the staged file once processed.
func handleUpsertFileAsync(cfg *config.Config, staging *services.Staging, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		content, contentType, filename, ok := readUploadedFile(c, cfg.MaxFileSize)
		if !ok {
			return
		}

		author := c.PostForm("author")
		if author == "" {
			utils.RespondWithBadRequest(c, "author is required", nil)
			return
		}

		path, release, err := staging.Stage(content)
		if err != nil {
			log.Printf("async upsert: staging failed: %v", err)
			utils.RespondWithInternalError(c, "Internal Service Error", nil)
			return
		}

		task, err := queue.NewIngestFileTask(queue.IngestFilePayload{
			StagedPath:   path,
			ContentType:  contentType,
			Filename:     filename,
			Author:       author,
			URL:          c.PostForm("url"),
			ChunkSize:    formInt(c, "chunk_size"),
			ChunkOverlap: formInt(c, "chunk_overlap"),
		})
		if err != nil {
			release()
			utils.RespondWithInternalError(c, "Internal Service Error", nil)
			return
		}

		// Once enqueued the worker owns the staged file; until then the
		// handler does, and must clean up when the task never leaves.
		info, err := queueClient.Enqueue(task)
		if err != nil {
			release()
			log.Printf("async upsert: enqueue failed: %v", err)
			utils.RespondWithInternalError(c, "Internal Service Error", nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "queue": info.Queue})
	}
}

// readUploadedFile pulls the multipart "file" field into memory with the
// configured size cap. Writes the error response itself on failure.
func readUploadedFile(c *gin.Context, maxSize int64) (content []byte, contentType, filename string, ok bool) {
	if err := c.Request.ParseMultipartForm(maxSize); err != nil {
		utils.RespondWithBadRequest(c, "File size exceeds maximum limit", nil)
		return nil, "", "", false
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.RespondWithBadRequest(c, "No file provided", nil)
		return nil, "", "", false
	}
	defer file.Close()

	content, err = io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to read file", nil)
		return nil, "", "", false
	}
	if int64(len(content)) > maxSize {
		utils.RespondWithBadRequest(c, "File size exceeds maximum limit", nil)
		return nil, "", "", false
	}

	return content, header.Header.Get("Content-Type"), header.Filename, true
}

func formInt(c *gin.Context, key string) int {
	if v := c.PostForm(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// respondIngestionError maps pipeline failures to status codes. Unsupported
// formats are the caller's mistake; everything else is reported as a generic
// internal error with detail kept in the logs.
func respondIngestionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnsupportedFormat):
		utils.RespondWithBadRequest(c, "Unsupported file format", nil)
	case errors.Is(err, services.ErrFetchFailed):
		log.Printf("ingest: %v", err)
		utils.RespondWithInternalError(c, "Failed to fetch file", nil)
	case errors.Is(err, services.ErrExtractionFailed):
		log.Printf("ingest: %v", err)
		utils.RespondWithInternalError(c, "Failed to extract text from file", nil)
	default:
		log.Printf("ingest: %v", err)
		utils.RespondWithInternalError(c, "Internal Service Error", nil)
	}
}
