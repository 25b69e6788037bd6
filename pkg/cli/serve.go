package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/cli/config"
	githubcontroller "github.com/m-mizutani/lintgate/pkg/controller/github"
	controller "github.com/m-mizutani/lintgate/pkg/controller/http"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/infra/command"
	"github.com/m-mizutani/lintgate/pkg/infra/github"
	"github.com/m-mizutani/lintgate/pkg/infra/metrics"
	"github.com/m-mizutani/lintgate/pkg/infra/notify"
	"github.com/m-mizutani/lintgate/pkg/infra/python"
	"github.com/m-mizutani/lintgate/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const publicGitHubAPI = "https://api.github.com/"

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		githubCfg   config.GitHub
		workflowCfg config.Workflow
		storageCfg  config.Storage
		notifyCfg   config.Notify
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, workflowCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server receiving GitHub webhooks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting lintgate server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("github", githubCfg),
				slog.Any("storage", storageCfg),
				slog.Any("notify", notifyCfg),
			)

			if err := githubCfg.Validate(); err != nil {
				return err
			}

			wf, err := workflowCfg.Load()
			if err != nil {
				return err
			}
			logger.Info("Workflow loaded",
				slog.String("name", wf.Name),
				slog.String("runs_on", wf.Job.RunsOn),
				slog.String("python_version", wf.Job.PythonVersion),
				slog.Duration("timeout", wf.Job.Timeout),
			)

			repo, closeRepo, err := storageCfg.NewJobRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			logs, closeLogs, err := storageCfg.NewLogStore(ctx)
			if err != nil {
				return err
			}
			defer closeLogs()

			hub, err := notifyCfg.NewSentryHub()
			if err != nil {
				return err
			}
			if hub != nil {
				ctx = sentry.SetHubOnContext(ctx, hub)
				defer hub.Flush(2 * time.Second)
			}

			var (
				reporters []interfaces.Reporter
				source    interfaces.SourceFetcher
			)
			if githubCfg.Configured() {
				client, err := githubCfg.NewClient()
				if err != nil {
					return err
				}
				source = usecase.NewGitHubSource(client)
				reporters = append(reporters, notify.NewGitHubStatus(client, serverCfg.BaseURL))
			} else {
				logger.Warn("GitHub App is not configured; sources are fetched anonymously and commit statuses are not set")
				client, err := github.NewClientWithHTTP(http.DefaultClient, publicGitHubAPI)
				if err != nil {
					return err
				}
				source = usecase.NewGitHubSource(client)
			}
			reporters = append(reporters, notifyCfg.Reporters(hub)...)

			m := metrics.New()
			runner := command.New(command.WithEnv(childEnv()))
			publisher := usecase.NewPublisher(repo, reporters...)

			jobOpts := append(workflowCfg.JobOptions(),
				usecase.WithLogStore(logs),
				usecase.WithJobMetrics(m),
			)
			jobUC := usecase.NewJob(wf, source, python.New(runner), runner, publisher, jobOpts...)
			webhookUC := usecase.NewWebhook(wf, jobUC, publisher,
				usecase.WithMaxJobs(serverCfg.MaxJobs),
				usecase.WithEventMetrics(m),
			)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				githubcontroller.NewEventProcessor(webhookUC),
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
				controller.WithJobRepository(repo),
				controller.WithMetrics(m),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			// Running jobs finish within their own timeout; anything left after that is recorded as error
			drainCtx, cancelDrain := context.WithTimeout(context.WithoutCancel(ctx), wf.Job.Timeout+30*time.Second)
			defer cancelDrain()
			if err := webhookUC.Drain(drainCtx); err != nil {
				logger.Warn("Jobs abandoned at shutdown", slog.Any("error", err))
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
