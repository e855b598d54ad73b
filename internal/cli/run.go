package cli

import (
	"context"

	"github.com/aretw0/conshell/internal/config"
	"github.com/aretw0/conshell/internal/logging"
	"github.com/aretw0/conshell/internal/presentation/tui"
	"github.com/aretw0/conshell/pkg/shell"
)

// Load resolves the configuration and logger for args. A leading
// --config=<path> token is consumed; the remaining args are returned.
func Load(args []string, environ map[string]string) (config.Config, []string, error) {
	path, rest := config.Path(args, environ)
	cfg, err := config.Load(path, environ)
	return cfg, rest, err
}

// Execute builds the shell and runs args as the startup command line.
func Execute(ctx context.Context, args []string, opts Options) error {
	sh, rest, err := Build(args, opts)
	if err != nil {
		return err
	}
	if len(rest) > 0 && tui.IsTerminal(opts.Out) {
		tui.PrintBanner(opts.Out, sh.Info().Title, sh.Info().Version)
	}
	return sh.Run(ctx, rest)
}

// Build loads the configuration and builds the shell without running it.
func Build(args []string, opts Options) (*shell.Shell, []string, error) {
	cfg, rest, err := Load(args, opts.Environ)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.FromConfig(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	sh, err := NewShell(cfg, logger, opts)
	if err != nil {
		return nil, nil, err
	}
	return sh, rest, nil
}
