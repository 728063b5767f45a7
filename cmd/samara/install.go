package main

import (
	"fmt"

	"github.com/sandevgo/samara/internal/config"
	"github.com/sandevgo/samara/internal/service/installer"
	"github.com/sandevgo/samara/internal/service/ui"
	"github.com/sandevgo/samara/pkg/log"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:          "install",
	Short:        "Create the runtime directory and configuration",
	Long:         `Asks for the model provider, similarity search backend and chat transport, then writes .env and the persona files into the runtime directory.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Debug().Msg("starting installation wizard")

		// the wizard saves .env and the persona files itself
		state, err := installer.RunWizard()
		if err != nil {
			return err
		}

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Section("installed"))
		fmt.Fprintf(out, "runtime   %s\n", appCfg.GetRuntimePath())
		fmt.Fprintf(out, "memory    %s\n", appCfg.GetDataPath())
		fmt.Fprintf(out, "persona   %s, %s\n", appCfg.GetIdentityPath(), appCfg.GetSystemPath())
		fmt.Fprintf(out, "provider  %s (%s)\n", appCfg.GetProvider(), appCfg.GetModel())
		fmt.Fprintf(out, "settings  %d values saved\n", len(state.EnvVars))
		fmt.Fprintln(out, ui.DescStyle.Render("Run 'samara start' to join the chat."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
