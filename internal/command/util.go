package command

import (
	"bufio"
	"context"
	"errors"
	"os"
	"runtime/debug"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/pkg/config"
	"github.com/noah-isme/edutrack-api/pkg/database"
)

type (
	configKey struct{}
	loggerKey struct{}
)

// env bundles what every database command needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
}

func (e *env) Close() error {
	return e.db.Close()
}

func (e *env) users() (*service.UserService, error) {
	hasher, err := service.NewBcryptHasher(service.DefaultPasswordCost)
	if err != nil {
		return nil, err
	}
	return service.NewUserService(service.UserServiceParams{
		Repo:      repository.NewUserRepository(e.db),
		Passwords: hasher,
		Logger:    e.logger,
	}), nil
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("configuration was not loaded")
	}
	logr, ok := ctx.Value(loggerKey{}).(*zap.Logger)
	if !ok {
		logr = zap.NewNop()
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logr, db: db}, nil
}

// prompt reads one line from stdin. With mask set and a terminal attached the
// input is not echoed.
func prompt(label string, mask bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if _, err := os.Stderr.WriteString(label); err != nil {
			return "", err
		}
		if mask {
			line, err := term.ReadPassword(fd)
			_, _ = os.Stderr.WriteString("\n")
			return string(line), err
		}
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-dev"
	}
	ver := "unknown"
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			ver = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if dirty {
		ver += "-dev"
	}
	return ver
}
