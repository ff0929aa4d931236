package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nkanf-dev/CyberWeaver/internal/api"
	"github.com/nkanf-dev/CyberWeaver/internal/config"
	"github.com/nkanf-dev/CyberWeaver/internal/store"
)

// env is the per-invocation wiring shared by commands that touch the store.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	service *api.Service
}

func (e *env) Close() error {
	return e.store.Close()
}

// openEnv resolves configuration and opens the configured database.
// Callers must Close the returned env.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadWith(opts.viper, opts.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to prepare data directory", err)
	}

	st, err := store.Open(cfg.DatabasePath(),
		store.WithLogger(logger),
		store.WithBusyTimeout(cfg.BusyTimeoutMS),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug("database opened", "path", cfg.DatabasePath())

	return &env{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		service: api.NewService(st, api.WithLogger(logger)),
	}, nil
}
