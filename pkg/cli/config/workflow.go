package config

import (
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/infra/workflow"
	"github.com/m-mizutani/lintgate/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Workflow holds the workflow definition and runner settings
type Workflow struct {
	Path         string
	RunnerLabels []string
	TempDir      string
}

// Flags returns CLI flags for workflow configuration
func (c *Workflow) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "workflow",
			Aliases:     []string{"w"},
			Usage:       "Workflow file (.yml, .yaml or .toml); the built-in flake8 workflow when empty",
			Destination: &c.Path,
			Sources:     cli.EnvVars("LINTGATE_WORKFLOW"),
		},
		&cli.StringSliceFlag{
			Name:        "runner-label",
			Usage:       "Label this runner accepts for runs-on",
			Value:       usecase.DefaultRunnerLabels,
			Destination: &c.RunnerLabels,
			Sources:     cli.EnvVars("LINTGATE_RUNNER_LABELS"),
		},
		&cli.StringFlag{
			Name:        "temp-dir",
			Usage:       "Directory for per-job workspaces; the system temp dir when empty",
			Destination: &c.TempDir,
			Sources:     cli.EnvVars("LINTGATE_TEMP_DIR"),
		},
	}
}

// Load reads the workflow definition
func (c *Workflow) Load() (*model.Workflow, error) {
	return workflow.Load(c.Path)
}

// JobOptions returns the runner settings as job options
func (c *Workflow) JobOptions() []usecase.JobOption {
	return []usecase.JobOption{
		usecase.WithRunnerLabels(c.RunnerLabels...),
		usecase.WithTempRoot(c.TempDir),
	}
}
