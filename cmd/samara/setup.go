package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sandevgo/samara/internal/config"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/providers/llm"
	"github.com/sandevgo/samara/internal/providers/rag"
	"github.com/sandevgo/samara/internal/service/agent"
	"github.com/sandevgo/samara/internal/service/command"
	"github.com/sandevgo/samara/internal/service/memory"
	"github.com/sandevgo/samara/internal/transport/cli"
	"github.com/sandevgo/samara/internal/transport/telegram"
	"github.com/sandevgo/samara/pkg/log"
	"github.com/sandevgo/samara/pkg/srv"
)

// selfID identifies the bot in interactions and documents.
const selfID = "bot"

func NewServices(ctx context.Context) ([]srv.Service, error) {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, err
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	ragCfg := config.NewRAGConfig(ctx)
	memCfg := memoryConfig(appCfg)

	// 2. Memory stores
	mem := memory.Open(appCfg.GetDataPath(), memCfg)
	if err := mem.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("memory loaded with errors, affected stores start empty")
	}

	// 3. AI Provider
	ai, err := llm.NewDynamicProvider(ctx, appCfg, appCfg.LLMTimeout)
	if err != nil {
		return nil, err
	}

	// 4. Similarity search
	idx, err := rag.NewSearch(ctx, ragCfg, appCfg)
	if err != nil {
		logger.Warn().Err(err).Msg("similarity search unavailable, continuing without it")
	}
	var search core.SimilaritySearch
	if idx != nil {
		search = idx
		services = append(services, srv.NewCleanup(idx.Close))
	}

	indexer := memory.NewIndexer(search, appCfg.StatsInterval)
	services = append(services, indexer)

	// 5. Persona and context assembly
	persona := memory.NewPersona(appCfg)
	services = append(services, persona)

	names := memory.NewNameExtractor(strings.ToLower(appCfg.GetBotName()))
	assembler := memory.NewAssembler(mem, search, names, memCfg)
	prompter := memory.NewPrompter(persona, mem.Directory, rag.CountTokens)

	var extractor *memory.Extractor
	if appCfg.ExtractFacts {
		extractor = memory.NewExtractor(ai, mem, appCfg.LLMTimeout)
	}

	if appCfg.StatsInterval > 0 {
		services = append(services, srv.NewTicker(appCfg.StatsInterval, func(ctx context.Context) {
			stats := mem.Stats()
			log.FromCtx(ctx).Info().
				Int("messages", stats.Messages).
				Int("facts", stats.Facts).
				Int("relationships", stats.Relationships).
				Int("interactions", stats.Interactions).
				Int("participants", stats.Participants).
				Int("conversations", stats.Conversations).
				Msg("memory stats")
		}))
	}

	// 6. Agent Service
	self := core.Subject{ID: selfID, Name: appCfg.GetBotName()}
	ag := agent.NewAgent(self, ai, mem, assembler, prompter, extractor, indexer)

	router := command.New(command.NewCommands(appCfg.GetProvider(), ai, mem))

	// 7. Transports
	transports, err := initTransports(ctx, appCfg, ag, router, mem.Directory)
	if err != nil {
		return nil, err
	}
	if len(transports) == 0 {
		logger.Warn().Msg("no transport enabled, set ENABLE_TELEGRAM or ENABLE_CLI")
	}
	services = append(services, transports...)

	return services, nil
}

func memoryConfig(cfg *config.AppConfig) core.MemoryConfig {
	return core.MemoryConfig{
		LedgerLimit:       cfg.LedgerLimit,
		InteractionLimit:  cfg.InteractionLimit,
		ConversationLimit: cfg.ConversationLimit,
		MonitoredChannels: cfg.MonitoredChannels,
		SearchTimeout:     cfg.SearchTimeout,
	}
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	ag *agent.Agent,
	router core.CmdRouter,
	directory *memory.Directory,
) ([]srv.Service, error) {
	var services []srv.Service

	// Telegram Bot
	if cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, ag, router, directory)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	// Console chat
	if cfg.EnableCLI {
		rl, err := cli.NewReadLine(ag, router, directory, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
