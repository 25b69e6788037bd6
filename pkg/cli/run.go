package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/lintgate/pkg/cli/config"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/command"
	"github.com/m-mizutani/lintgate/pkg/infra/python"
	"github.com/m-mizutani/lintgate/pkg/infra/repository"
	"github.com/m-mizutani/lintgate/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Process exit codes of the run command besides the linter's own
const (
	exitInfraError = 3
	exitTimeout    = 124
)

func cmdRun() *cli.Command {
	var (
		eventCfg    config.Event
		workflowCfg config.Workflow
		storageCfg  config.Storage
		dir         string
	)

	var flags []cli.Flag
	flags = append(flags, eventCfg.Flags()...)
	flags = append(flags, workflowCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "dir",
			Aliases:     []string{"C"},
			Usage:       "Checked out source tree to lint",
			Value:       ".",
			Destination: &dir,
			Sources:     cli.EnvVars("LINTGATE_DIR"),
		},
		&cli.StringFlag{
			Name:        "log-dir",
			Usage:       "Directory to keep step logs in; disabled when empty",
			Destination: &storageCfg.LogDir,
			Sources:     cli.EnvVars("LINTGATE_LOG_DIR"),
		},
	)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the lint job for an event against a local source tree",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			ev, err := eventCfg.Trigger()
			if err != nil {
				return err
			}

			wf, err := workflowCfg.Load()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			decision := wf.Match(ev)
			if !decision.Matched {
				fmt.Fprintf(w, "%s %s\n", color.YellowString("SKIPPED"), decision.Reason)
				return nil
			}

			logs, closeLogs, err := storageCfg.NewLogStore(ctx)
			if err != nil {
				return err
			}
			defer closeLogs()

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := command.New(command.WithEnv(childEnv()))
			jobOpts := append(workflowCfg.JobOptions(),
				usecase.WithLogStore(logs),
				usecase.WithLintOutput(w),
			)
			jobUC := usecase.NewJob(wf,
				usecase.NewLocalSource(dir),
				python.New(runner),
				runner,
				usecase.NewPublisher(repository.NewMemory()),
				jobOpts...,
			)

			logger.Info("Running lint job",
				"workflow", wf.Name,
				"event", ev.Kind,
				"branch", ev.Branch,
				"dir", dir,
			)

			job, err := jobUC.Execute(ctx, model.NewJob(wf.Name, *ev, time.Now()))
			if err != nil {
				return err
			}

			printSummary(w, job)
			return jobExit(job)
		},
	}
}

func printSummary(w io.Writer, job *model.Job) {
	var label string
	switch job.Status {
	case types.JobStatusPassed:
		label = color.New(color.FgGreen, color.Bold).Sprint("PASSED")
	case types.JobStatusFailed:
		label = color.New(color.FgRed, color.Bold).Sprint("FAILED")
	default:
		label = color.New(color.FgMagenta, color.Bold).Sprint(string(job.Status))
	}

	fmt.Fprintf(w, "%s %s (%s on %s) exit=%d in %s\n",
		label, job.Workflow, job.Trigger.Kind, job.Trigger.Branch,
		job.ExitCode, job.Duration().Round(time.Millisecond),
	)
	if job.Error != "" {
		fmt.Fprintf(w, "  %s\n", job.Error)
	}
}

// jobExit maps a finished job to the process exit code
func jobExit(job *model.Job) error {
	switch job.Status {
	case types.JobStatusPassed:
		return nil
	case types.JobStatusFailed:
		return cli.Exit("", job.ExitCode)
	case types.JobStatusTimeout:
		return cli.Exit("", exitTimeout)
	default:
		return cli.Exit("", exitInfraError)
	}
}
