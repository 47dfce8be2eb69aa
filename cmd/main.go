package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pdf-ingest-service/internal/ai"
	"pdf-ingest-service/internal/config"
	"pdf-ingest-service/internal/extract"
	"pdf-ingest-service/internal/logger"
	"pdf-ingest-service/internal/pipeline"
	"pdf-ingest-service/internal/search"
	"pdf-ingest-service/internal/storage"
	"pdf-ingest-service/internal/telemetry"
	"pdf-ingest-service/middleware"
	"pdf-ingest-service/routes"
)

const serviceName = "pdf-ingest-service"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Tracing is best-effort; the service runs without a collector
	shutdownTracer, err := telemetry.InitTracer(serviceName)
	if err != nil {
		logger.Warn("tracing disabled", "err", err)
	} else {
		defer shutdownTracer()
	}

	// Build external collaborators once; every request shares their
	// connection pools but owns its own pipeline state.
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatal("Failed to load AWS config:", err)
	}
	fetcher := storage.NewS3Fetcher(s3.NewFromConfig(awsCfg), cfg.BucketName)

	extractor := extract.NewExtractor(cfg.MaxPDFBytes)
	embedder := ai.NewEmbeddingClient(cfg.OpenAIAPIKey, cfg.EmbeddingsModel, cfg.EmbeddingsURL, cfg.EmbedRPM)
	indexer := search.NewClient(cfg.OpenSearchURL)

	pipe := pipeline.New(fetcher, extractor, embedder, indexer, cfg.ChunkSize, cfg.EmbedConcurrency)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware(serviceName))
	router.Use(middleware.EnrichTrace())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Rate limiting is fail-open: without Redis the service still ingests
	if rdb, err := config.NewRedisClient(cfg); err != nil {
		logger.Warn("rate limiting disabled", "err", err)
	} else {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupIngestRoutes(router, pipe)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
