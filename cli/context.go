package main

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ytq/internal/app"
	"ytq/internal/config"
)

type commandContext struct {
	verbose *bool

	// opener replaces the browser opener in tests.
	opener app.Opener

	appOnce sync.Once
	app     *app.App
	config  *config.Config
	paths   config.Paths
	logger  *slog.Logger
	appErr  error
}

func newCommandContext(verbose *bool) *commandContext {
	return &commandContext{verbose: verbose}
}

// ensureApp resolves paths, loads .env and the config file, and builds the
// App once per invocation.
func (c *commandContext) ensureApp(logOut io.Writer) (*app.App, error) {
	c.appOnce.Do(func() {
		level := slog.LevelWarn
		if c.verbose != nil && *c.verbose {
			level = slog.LevelDebug
		}
		c.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})).
			With("invocation", uuid.NewString())

		paths, err := config.ResolvePaths()
		if err != nil {
			c.appErr = err
			return
		}
		if err := config.LoadDotEnv(paths.ConfigDir); err != nil {
			c.appErr = err
			return
		}
		cfg, err := config.Load(paths.ConfigFile(), c.logger)
		if err != nil {
			c.appErr = err
			return
		}
		c.logger.Debug("configuration loaded", "config_dir", paths.ConfigDir, "data_dir", paths.DataDir, "mode", cfg.Mode, "offline", cfg.Offline)

		c.paths = paths
		c.config = cfg
		c.app = app.New(cfg, paths, app.Options{Opener: c.opener, Logger: c.logger})
	})
	return c.app, c.appErr
}

// execute runs one app command for a cobra command.
func (c *commandContext) execute(cmd *cobra.Command, command app.Command) (app.Output, error) {
	a, err := c.ensureApp(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return a.Execute(ctx, command)
}
