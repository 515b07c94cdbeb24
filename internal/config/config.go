package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`
	WeaviateClass  string `envconfig:"WEAVIATE_CLASS" default:"DocChunk"`

	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gemini-2.0-flash"`
	RewriteModel   string `envconfig:"REWRITE_MODEL" default:"gemini-2.0-flash"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`
	RetrievalK   int `envconfig:"RETRIEVAL_K" default:"5"`

	// External call budget for embedding, rewriting and retrieval.
	// Generation streams for longer and is bounded by the request context.
	CallTimeoutSeconds int `envconfig:"CALL_TIMEOUT_SECONDS" default:"30"`

	EnableAPI       bool   `envconfig:"ENABLE_API" default:"true"`
	EnableIngestion bool   `envconfig:"ENABLE_INGESTION" default:"false"`
	DocsRoot        string `envconfig:"DOCS_ROOT" default:"contents/docs"`

	ServerPort   int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.WeaviateHost == "" {
		return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
	}
	if c.WeaviateClass == "" {
		return fmt.Errorf("%w: WEAVIATE_CLASS", ErrMissingRequired)
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("RETRIEVAL_K must be positive, got %d", c.RetrievalK)
	}
	return nil
}
