package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/samara/pkg/log"
)

// RAGConfig configures the embedder and the vector index behind similarity search.
type RAGConfig struct {
	// sqlite, qdrant or none
	VectorProvider string `env:"VECTOR_PROVIDER" envDefault:"sqlite"`

	EmbeddingProvider   string `env:"EMBEDDING_PROVIDER" envDefault:"openai"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions uint   `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`
	EmbeddingBaseURL    string `env:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey     string `env:"EMBEDDING_API_KEY" secret:"true"`

	QdrantHost       string `env:"QDRANT_HOST" envDefault:"localhost"`
	QdrantPort       int    `env:"QDRANT_PORT" envDefault:"6334"`
	QdrantAPIKey     string `env:"QDRANT_API_KEY" secret:"true"`
	QdrantUseTLS     bool   `env:"QDRANT_USE_TLS" envDefault:"false"`
	QdrantCollection string `env:"QDRANT_COLLECTION" envDefault:"samara_messages"`
}

func NewRAGConfig(ctx context.Context) *RAGConfig {
	cfg := &RAGConfig{}
	if err := env.Parse(cfg); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse RAG config")
	}
	return cfg
}

func (c RAGConfig) IsSearchEnabled() bool {
	return c.VectorProvider != "" && c.VectorProvider != "none"
}
