package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/edutrack-api/internal/service"
)

// errCheckFailed marks a check-db run that found problems.
var errCheckFailed = errors.New("database check failed")

func checkDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-db",
		Short: "Verify the users table and the administrator account",
		Long: "Checks that the users table exists, that the administrator account is\n" +
			"present and that its password hash is a valid bcrypt hash.",
		Args: cobra.NoArgs,
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
			report, err := users.CheckAccounts(cmd.Context())
			if err != nil {
				return err
			}
			return printCheck(cmd.OutOrStdout(), report)
		},
	}
}

func printCheck(w io.Writer, report *service.AccountCheck) error {
	ok := true
	line := func(pass bool, msg string) {
		mark := "ok  "
		if !pass {
			mark = "FAIL"
			ok = false
		}
		fmt.Fprintf(w, "[%s] %s\n", mark, msg)
	}

	line(report.UsersTable, "users table exists")
	if report.UsersTable {
		line(report.AdminExists, fmt.Sprintf("account %q exists", service.AdminUsername))
	}
	if report.AdminExists {
		msg := "administrator password hash is a bcrypt hash"
		if report.AdminHashValid {
			msg = fmt.Sprintf("%s (cost %d)", msg, report.AdminHashCost)
		}
		line(report.AdminHashValid, msg)
	}
	if !ok {
		return errCheckFailed
	}
	return nil
}
