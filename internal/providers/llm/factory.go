package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/option"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
)

// NewProvider creates the appropriate AIProvider based on configuration.
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (core.AIProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("starting llm provider")

	model := cfg.GetModel()
	if model == "" {
		return nil, fmt.Errorf("no model configured for provider %s", cfg.GetProvider())
	}

	switch cfg.GetProvider() {
	case "openai":
		var opts []option.RequestOption
		if url := cfg.GetBaseURL(); url != "" {
			opts = append(opts, option.WithBaseURL(url))
		}
		return NewOpenAI(cfg.GetAPIKey(), model, opts...), nil
	case "anthropic":
		return NewAnthropic(cfg.GetAPIKey(), model), nil
	case "openrouter":
		return NewOpenRouter(cfg.GetAPIKey(), model), nil
	case "ollama":
		return NewOllama(cfg.GetBaseURL(), cfg.GetAPIKey(), model), nil
	case "custom":
		if cfg.GetBaseURL() == "" {
			return nil, fmt.Errorf("custom provider requires a base url")
		}
		return NewCustomOpenAI(cfg.GetBaseURL(), cfg.GetAPIKey(), model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
