package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/samara/internal/config"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/providers/rag"
	"github.com/sandevgo/samara/internal/service/memory"
	"github.com/sandevgo/samara/internal/transport/mcpserver"
	"github.com/sandevgo/samara/pkg/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the chat memory over MCP (stdio)",
	Long:  `Exposes facts, relationships, remembered messages and interactions as read-only MCP tools on stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol
		var flushLog func()
		ctx, flushLog = log.NewContextWithWriter(ctx, debug || config.IsDebug(), os.Stderr)
		defer flushLog()
		logger := log.FromCtx(ctx)

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		appCfg := config.NewAppConfig(ctx)
		ragCfg := config.NewRAGConfig(ctx)

		mem := memory.Open(appCfg.GetDataPath(), memoryConfig(appCfg))

		idx, err := rag.NewSearch(ctx, ragCfg, appCfg)
		if err != nil {
			logger.Warn().Err(err).Msg("similarity search unavailable, serving local memory only")
		}
		var search core.SimilaritySearch
		if idx != nil {
			search = idx
			defer idx.Close()
		}

		return mcpserver.New(mem, search, appCfg.MonitoredChannels).Serve(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
