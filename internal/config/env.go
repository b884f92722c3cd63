package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BearerToken     string
	Port            string
	GinMode         string
	CORSOrigins     []string
	Datastore       string // "memory" or "mongo"
	MongoURI        string
	DBName          string
	RedisAddr       string
	RedisPassword   string
	GeminiAPIKey    string
	EmbeddingsModel string
	MaxFileSize     int64
	FetchTimeout    int // seconds
	StagingDir      string
	StagingSweepAge int // minutes
	ChunkSize       int
	ChunkOverlap    int
	RateLimitReqs   int
	RateLimitWindow int // seconds
	OTLPEndpoint    string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		err := godotenv.Load()
		if err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		BearerToken:     getEnv("BEARER_TOKEN", ""),
		Port:            getEnv("PORT", "8002"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		CORSOrigins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Datastore:       getEnv("DATASTORE", "memory"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017/retrieval_gateway"),
		DBName:          getEnv("DB_NAME", "retrieval_gateway"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		EmbeddingsModel: getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),
		MaxFileSize:     getEnvInt64("MAX_FILE_SIZE", 10485760), // 10MB
		FetchTimeout:    getEnvInt("FETCH_TIMEOUT", 30),
		StagingDir:      getEnv("STAGING_DIR", ""),
		StagingSweepAge: getEnvInt("STAGING_SWEEP_AGE", 60),
		ChunkSize:       getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:    getEnvInt("CHUNK_OVERLAP", 200),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
		OTLPEndpoint:    getEnv("OTLP_ENDPOINT", ""),
	}

	// Validate required fields
	if cfg.BearerToken == "" {
		return nil, fmt.Errorf("BEARER_TOKEN is required")
	}

	switch cfg.Datastore {
	case "memory", "mongo":
	default:
		return nil, fmt.Errorf("unknown DATASTORE %q (expected memory or mongo)", cfg.Datastore)
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
