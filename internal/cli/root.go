// Package cli exposes the planner session through a cobra command
// tree. Commands stay thin; every state change goes through the
// engine and its wired listeners.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/orbit-planner/internal/app"
	"github.com/nhle/orbit-planner/internal/model"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// Execute runs the orbit command tree.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand creates the root orbit command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "orbit",
		Short: "Personal task planner with orbital gamification",
		Long: `orbit is a local-first task planner. Tasks orbit their deadlines,
completions earn XP and streaks, and state syncs to a remote mission
service in the background without ever blocking local changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", model.DefaultConfigPath(),
		"path to the config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"enable debug logging")

	cmd.AddCommand(
		NewAddCommand(opts),
		NewListCommand(opts),
		NewDoneCommand(opts),
		NewRecallCommand(opts),
		NewClearCommand(opts),
		NewStatusCommand(opts),
		NewAuthCommand(opts),
	)
	return cmd
}

// openSession loads config and builds a wired session, hydrating from
// the remote in the background fashion the engine expects: a failed
// hydration is reported at debug level and the session continues.
func openSession(opts *RootOptions) (*app.Session, error) {
	logger := newLogger(opts.Verbose)
	slog.SetDefault(logger)

	cfg, err := model.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	session, err := app.NewSession(cfg, app.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	if err := session.Hydrate(context.Background()); err != nil {
		logger.Debug("continuing with local state", "error", err)
	}
	return session, nil
}

// newLogger builds the process logger; debug level when verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
