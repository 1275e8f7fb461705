package command

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/pkg/database"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := e.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			if err := database.Migrate(cmd.Context(), e.db.DB, e.logger); err != nil {
				return err
			}
			ver, err := database.Version(cmd.Context(), e.db.DB)
			if err != nil {
				return err
			}
			e.logger.Info("schema up to date", zap.Int64("version", ver))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := e.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			ver, err := database.Version(cmd.Context(), e.db.DB)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ver)
			return err
		},
	})
	return cmd
}
