package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/lintgate/pkg/cli/config"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application. Errors carrying an exit code (cli.ExitCoder) are
// returned as is so that the caller can exit with that code.
func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	var logger *slog.Logger

	app := &cli.Command{
		Name:    types.ServiceName,
		Usage:   "Trigger-gated lint runner for GitHub push and pull_request events",
		Version: types.Version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		// Exit codes are handled by main
		ExitErrHandler: func(ctx context.Context, c *cli.Command, err error) {},
		Commands: []*cli.Command{
			cmdServe(),
			cmdRun(),
			cmdMatch(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		var exitCoder cli.ExitCoder
		if errors.As(err, &exitCoder) {
			return err
		}

		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}
