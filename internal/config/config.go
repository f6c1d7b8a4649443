package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	Port   string `env:"PORT" envDefault:"8090"`
	APIKey string `env:"API_KEY"`

	// Cohere embedding service
	CohereAPIKey string `env:"COHERE_API_KEY"`
	CohereURL    string `env:"COHERE_URL" envDefault:"https://api.cohere.ai"`
	EmbedModel   string `env:"EMBED_MODEL" envDefault:"embed-multilingual-v3.0"`

	// Vector store
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"qdrant"`
	QdrantHost     string `env:"QDRANT_HOST" envDefault:"localhost"`
	QdrantPort     int    `env:"QDRANT_PORT" envDefault:"6333"`
	QdrantURL      string `env:"QDRANT_URL"`
	QdrantAPIKey   string `env:"QDRANT_API_KEY"`
	CollectionName string `env:"COLLECTION_NAME" envDefault:"embeddings"`
	VectorSize     int    `env:"VECTOR_SIZE" envDefault:"1024"`

	// Processing
	BatchSize       int           `env:"BATCH_SIZE" envDefault:"10"`
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryBackoff    time.Duration `env:"RETRY_BACKOFF" envDefault:"1s"`
	MaxWorkers      int           `env:"MAX_WORKERS" envDefault:"4"`
	MaxChunkSize    int           `env:"MAX_CHUNK_SIZE" envDefault:"1000"`
	MaxTextLength   int           `env:"MAX_TEXT_LENGTH" envDefault:"10000"`
	MinQualityScore float64       `env:"MIN_QUALITY_SCORE" envDefault:"0.3"`
	ValidateContent bool          `env:"VALIDATE_CONTENT" envDefault:"true"`

	// Timeouts
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	EmbedTimeout time.Duration `env:"EMBED_TIMEOUT" envDefault:"60s"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"60s"`
	URLTimeout   time.Duration `env:"URL_TIMEOUT" envDefault:"5m"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks required values and rejects nonsensical settings.
// The embedding API key is checked here so the process refuses to start
// before any network call is made.
func (c Config) Validate() error {
	if c.CohereAPIKey == "" {
		return fmt.Errorf("COHERE_API_KEY is required")
	}
	switch c.StoreBackend {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be qdrant or memory, got %q", c.StoreBackend)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be non-negative")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("MAX_WORKERS must be positive")
	}
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("MAX_CHUNK_SIZE must be positive")
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("VECTOR_SIZE must be positive")
	}
	if c.FetchTimeout <= 0 || c.EmbedTimeout <= 0 || c.StoreTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
