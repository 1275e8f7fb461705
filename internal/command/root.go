// Package command contains the edutrackctl command constructors.
package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/pkg/config"
	"github.com/noah-isme/edutrack-api/pkg/logger"
)

// RootCommand instantiates the root command with all sub-commands bound.
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "edutrackctl [command]",
		Short:        "Maintenance tool for the EduTrack database",
		Version:      version(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logr)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if logr, ok := cmd.Context().Value(loggerKey{}).(*zap.Logger); ok {
				_ = logr.Sync()
			}
		},
	}

	cmd.AddCommand(
		migrateCommand(),
		checkDBCommand(),
		resetPasswordCommand(),
		seedAdminCommand(),
	)

	return cmd
}
