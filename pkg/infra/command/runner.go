package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed
const waitDelay = 5 * time.Second

// Runner executes commands directly, without a shell
type Runner struct {
	env []string
}

// Option configures Runner
type Option func(*Runner)

// WithEnv replaces the base environment inherited by every command
func WithEnv(env []string) Option {
	return func(r *Runner) {
		r.env = env
	}
}

// New creates a Runner inheriting the current process environment
func New(opts ...Option) *Runner {
	r := &Runner{env: os.Environ()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cmd until it exits or ctx is done
func (r *Runner) Run(ctx context.Context, cmd *model.Command) (*model.CommandResult, error) {
	logger := ctxlog.From(ctx)

	//nolint:gosec // G204: commands come from the workflow definition
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay

	env := append([]string(nil), r.env...)
	for key, value := range cmd.Env {
		env = append(env, key+"="+value)
	}
	c.Env = env

	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	logger.Debug("Running command", "name", cmd.Name, "args", cmd.Args, "dir", cmd.Dir)

	start := time.Now()
	err := c.Run()
	result := &model.CommandResult{
		Output:   out.Bytes(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, goerr.Wrap(ctxErr, "command interrupted",
			goerr.V("name", cmd.Name),
			goerr.V("duration", result.Duration),
		)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, goerr.Wrap(err, "failed to run command", goerr.V("name", cmd.Name))
	}

	return result, nil
}
