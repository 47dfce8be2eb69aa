package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-ingest-service/internal/logger"
	"pdf-ingest-service/internal/pipeline"
	"pdf-ingest-service/models"
)

// Ingestor runs one ingestion request end to end.
type Ingestor interface {
	Ingest(ctx context.Context, req models.IngestRequest) (models.IngestSummary, error)
}

// SetupIngestRoutes registers the ingestion endpoint.
func SetupIngestRoutes(router *gin.Engine, ingestor Ingestor) {
	router.POST("/ingest", HandleIngest(ingestor))
}

// HandleIngest accepts {doc_id, s3_key}, runs the pipeline, and answers with
// {message, chunk_count} on success or {error} on failure. Validation
// failures are 400; every downstream failure is 500 with the error message as
// the only caller-visible detail.
func HandleIngest(ingestor Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing doc_id or s3_key"})
			return
		}

		summary, err := ingestor.Ingest(c.Request.Context(), req)
		if err != nil {
			var validationErr *pipeline.ValidationError
			if errors.As(err, &validationErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
				return
			}

			logger.Error("ingest failed",
				"doc_id", req.DocID,
				"s3_key", req.S3Key,
				"request_id", c.GetString("request_id"),
				"err", err,
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":     "ingest complete",
			"chunk_count": summary.ChunkCount,
		})
	}
}
