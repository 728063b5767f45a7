package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sandevgo/samara/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"SAMARA_RUNTIME_PATH" envDefault:".samara"`
	BotName     string `env:"BOT_NAME" envDefault:"Samara"`

	// Allow selecting the provider
	Provider            string `env:"LLM_PROVIDER" envDefault:"openrouter"`
	Model               string `env:"LLM_MODEL" envDefault:"google/gemma-3-27b-it:free"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY" secret:"true"`
	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY" secret:"true"`
	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY" secret:"true"`
	OllamaBaseURL       string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey        string `env:"OLLAMA_API_KEY" secret:"true"`
	CustomOpenAIBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomOpenAIAPIKey  string `env:"CUSTOM_OPENAI_API_KEY" secret:"true"`

	// Transport Flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"ENABLE_CLI" envDefault:"true"`

	// Memory
	LedgerLimit       int           `env:"LEDGER_LIMIT" envDefault:"200"`
	InteractionLimit  int           `env:"INTERACTION_LIMIT" envDefault:"100"`
	ConversationLimit int           `env:"CONVERSATION_LIMIT" envDefault:"20"`
	MonitoredChannels []string      `env:"MONITORED_CHANNELS" envSeparator:"," envDefault:"chat-general,canal-impostor"`
	ExtractFacts      bool          `env:"EXTRACT_FACTS" envDefault:"true"`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	SearchTimeout     time.Duration `env:"SEARCH_TIMEOUT" envDefault:"10s"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL" envDefault:"1h"`

	mu sync.RWMutex
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c
}

func (c *AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c *AppConfig) GetDataPath() string {
	return filepath.Join(c.RuntimePath, "data")
}

func (c *AppConfig) GetSystemPath() string {
	return filepath.Join(c.RuntimePath, "SYSTEM.md")
}

func (c *AppConfig) GetIdentityPath() string {
	return filepath.Join(c.RuntimePath, "IDENTITY.md")
}

func (c *AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "samara.db")
}

func (c *AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

func (c *AppConfig) GetBotName() string {
	return c.BotName
}

func (c *AppConfig) GetProvider() string {
	return c.Provider
}

// GetAPIKey returns the key of the selected provider.
func (c *AppConfig) GetAPIKey() string {
	switch c.Provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "openrouter":
		return c.OpenRouterAPIKey
	case "ollama":
		return c.OllamaAPIKey
	case "custom":
		return c.CustomOpenAIAPIKey
	}
	return ""
}

// GetBaseURL returns the endpoint of the selected provider, empty when the
// provider has a fixed one.
func (c *AppConfig) GetBaseURL() string {
	switch c.Provider {
	case "ollama":
		return c.OllamaBaseURL
	case "custom":
		return c.CustomOpenAIBaseURL
	}
	return ""
}

func (c *AppConfig) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Model
}

// SetModel switches the model in memory and writes it back to the runtime .env.
func (c *AppConfig) SetModel(model string) error {
	if model == "" {
		return fmt.Errorf("model name is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := godotenv.Read(c.GetEnvPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read env file: %w", err)
		}
		values = map[string]string{}
	}
	values["LLM_MODEL"] = model

	if err := godotenv.Write(values, c.GetEnvPath()); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}

	c.Model = model
	return nil
}

func (c *AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
