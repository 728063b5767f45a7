package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/samara/internal/config"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/providers/qdrant"
	"github.com/sandevgo/samara/internal/storage/sqlite"
	"github.com/sandevgo/samara/pkg/log"
)

// NewEmbedder picks the embedding backend. The OpenAI embedder falls back to
// the chat provider's OpenAI key when no dedicated key is configured.
func NewEmbedder(cfg *config.RAGConfig, app *config.AppConfig) (core.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		key := cfg.EmbeddingAPIKey
		if key == "" {
			key = app.OpenAIAPIKey
		}
		if key == "" {
			return nil, fmt.Errorf("openai embeddings need EMBEDDING_API_KEY or OPENAI_API_KEY")
		}
		return NewOpenAIEmbedder(key, cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDimensions), nil
	case "ollama":
		baseURL := cfg.EmbeddingBaseURL
		if baseURL == "" {
			baseURL = app.OllamaBaseURL
		}
		model := cfg.EmbeddingModel
		if strings.HasPrefix(model, "text-embedding-") {
			model = DefaultOllamaModel
		}
		return NewOllamaEmbedder(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}

// NewSearch builds the similarity search selected by VECTOR_PROVIDER. It
// returns nil when search is disabled.
func NewSearch(ctx context.Context, cfg *config.RAGConfig, app *config.AppConfig) (*Index, error) {
	if !cfg.IsSearchEnabled() {
		log.FromCtx(ctx).Info().Msg("similarity search disabled")
		return nil, nil
	}

	embedder, err := NewEmbedder(cfg, app)
	if err != nil {
		return nil, err
	}

	var driver core.VectorDriver
	switch cfg.VectorProvider {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, app.GetDatabasePath())
		if err != nil {
			return nil, err
		}
		driver, err = sqlite.NewDocumentStore(ctx, db, int(cfg.EmbeddingDimensions))
		if err != nil {
			db.Close()
			return nil, err
		}
	case "qdrant":
		driver, err = qdrant.NewDriver(ctx, qdrant.Config{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     cfg.QdrantUseTLS,
			Collection: cfg.QdrantCollection,
			Dimensions: uint64(cfg.EmbeddingDimensions),
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown vector provider: %s", cfg.VectorProvider)
	}

	log.FromCtx(ctx).Info().
		Str("vector", cfg.VectorProvider).
		Str("embedding", cfg.EmbeddingProvider).
		Str("model", cfg.EmbeddingModel).
		Msg("similarity search ready")

	return NewIndex(embedder, driver), nil
}
