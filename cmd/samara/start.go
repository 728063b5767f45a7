package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/samara/pkg/log"
	"github.com/sandevgo/samara/pkg/srv"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Samara services",
	Long:  `Loads the memory stores and starts the configured transports (Telegram, console) and background workers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting samara")

		services, err := NewServices(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to initialize services")
			return err
		}

		// Run until a signal, a failure or a console exit
		if err := srv.Run(ctx, services); err != nil {
			logger.Error().Err(err).Msg("service failed")
			return err
		}
		logger.Info().Msg("samara has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
