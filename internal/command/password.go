package command

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func resetPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password USERNAME",
		Short: "Set a new password for an account",
		Long: "Overwrites the password of USERNAME. The password is read from the\n" +
			"interactive prompt or from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := e.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			password, err := prompt("new password: ", true)
			if err != nil {
				return err
			}
			users, err := e.users()
			if err != nil {
				return err
			}
			if err := users.ResetPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			e.logger.Info("password reset", zap.String("username", args[0]))
			return nil
		},
	}
}

func seedAdminCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator account when it is missing",
		Long:  "Creates the administrator account with SEED_ADMIN_PASSWORD. Existing accounts are left untouched.",
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

			users, err := e.users()
			if err != nil {
				return err
			}
			created, err := users.SeedAdmin(cmd.Context(), e.cfg.Seed.AdminPassword)
			if err != nil {
				return err
			}
			if !created {
				e.logger.Info("administrator account already exists")
			}
			return nil
		},
	}
}
