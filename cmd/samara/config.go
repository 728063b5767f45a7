package main

import (
	"fmt"

	"github.com/sandevgo/samara/internal/config"
	"github.com/sandevgo/samara/internal/service/ui"
	"github.com/sandevgo/samara/pkg/env"
	"github.com/spf13/cobra"
)

var showSecrets bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Prints the configuration resolved from the environment and the runtime .env file. Secrets are masked unless --secrets is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		type section struct {
			title string
			cfg   any
		}

		appCfg := config.NewAppConfig(ctx)
		sections := []section{
			{"app", appCfg},
			{"search", config.NewRAGConfig(ctx)},
		}
		if appCfg.IsTelegramSelected() {
			sections = append(sections, section{"telegram", config.NewTelegramConfig(ctx)})
		}

		opts := env.Options{Redact: !showSecrets}
		for _, section := range sections {
			out, err := env.MarshalEnv(section.cfg, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", ui.Section(section.title), out)
		}
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&showSecrets, "secrets", false, "print secret values")
	rootCmd.AddCommand(configCmd)
}
