package command

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/service"
)

func TestPrintCheckHealthy(t *testing.T) {
	var buf bytes.Buffer
	err := printCheck(&buf, &service.AccountCheck{UsersTable: true, AdminExists: true, AdminHashValid: true, AdminHashCost: 12})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[ok  ] users table exists")
	assert.Contains(t, buf.String(), "(cost 12)")
	assert.NotContains(t, buf.String(), "FAIL")
}

func TestPrintCheckMissingTable(t *testing.T) {
	var buf bytes.Buffer
	err := printCheck(&buf, &service.AccountCheck{})
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, buf.String(), "[FAIL] users table exists")
	assert.NotContains(t, buf.String(), "account")
}

func TestPrintCheckInvalidHash(t *testing.T) {
	var buf bytes.Buffer
	err := printCheck(&buf, &service.AccountCheck{UsersTable: true, AdminExists: true})
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, buf.String(), "[FAIL] administrator password hash is a bcrypt hash")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := RootCommand()
	for _, name := range []string{"migrate", "check-db", "reset-password", "seed-admin"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
