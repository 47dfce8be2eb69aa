package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Object storage
	BucketName string
	AWSRegion  string

	// Embedding provider (OpenAI-compatible)
	OpenAIAPIKey     string
	EmbeddingsURL    string
	EmbeddingsModel  string
	EmbedConcurrency int
	EmbedRPM         int

	// Search engine
	OpenSearchURL string

	// Pipeline tuning
	ChunkSize   int
	MaxPDFBytes int64

	// Redis (rate limiting)
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RateLimitReqs   int
	RateLimitWindow int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		BucketName: getEnv("BUCKET_NAME", ""),
		AWSRegion:  getEnv("AWS_REGION", "ap-south-1"),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		EmbeddingsURL:    getEnv("EMBEDDINGS_URL", "https://api.openai.com/v1"),
		EmbeddingsModel:  getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
		EmbedConcurrency: getEnvInt("EMBED_CONCURRENCY", 4),
		EmbedRPM:         getEnvInt("EMBED_RPM", 3000),

		OpenSearchURL: getEnv("OPENSEARCH_URL", ""),

		ChunkSize:   getEnvInt("CHUNK_SIZE", 1500),
		MaxPDFBytes: getEnvInt64("MAX_PDF_BYTES", 209715200), // 200MB safety cap

		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
	}

	// Validate required fields
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("BUCKET_NAME is required - set it in .env file")
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required - set it in .env file")
	}

	if cfg.OpenSearchURL == "" {
		return nil, fmt.Errorf("OPENSEARCH_URL is required - set it in .env file")
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be a positive integer, got %d", cfg.ChunkSize)
	}

	if cfg.EmbedConcurrency < 1 {
		cfg.EmbedConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
