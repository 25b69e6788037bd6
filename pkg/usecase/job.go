package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/metrics"
)

// DefaultRunnerLabels are the runs-on labels a runner accepts when none are configured
var DefaultRunnerLabels = []string{"ubuntu-latest", "linux"}

type jobUseCase struct {
	workflow  *model.Workflow
	source    interfaces.SourceFetcher
	toolchain interfaces.Toolchain
	runner    interfaces.CommandRunner
	publisher *Publisher

	logs     interfaces.LogStore
	metrics  *metrics.Metrics
	output   io.Writer
	labels   []string
	tempRoot string
}

// JobOption configures the job use case
type JobOption func(*jobUseCase)

// WithLogStore saves the output of every step
func WithLogStore(logs interfaces.LogStore) JobOption {
	return func(uc *jobUseCase) {
		uc.logs = logs
	}
}

// WithJobMetrics records finished jobs
func WithJobMetrics(m *metrics.Metrics) JobOption {
	return func(uc *jobUseCase) {
		uc.metrics = m
	}
}

// WithLintOutput copies the linter output to w
func WithLintOutput(w io.Writer) JobOption {
	return func(uc *jobUseCase) {
		uc.output = w
	}
}

// WithRunnerLabels sets the runs-on labels this runner accepts
func WithRunnerLabels(labels ...string) JobOption {
	return func(uc *jobUseCase) {
		uc.labels = labels
	}
}

// WithTempRoot sets where per-job directories are created
func WithTempRoot(dir string) JobOption {
	return func(uc *jobUseCase) {
		uc.tempRoot = dir
	}
}

// NewJob creates a JobUseCase running workflow's job
func NewJob(
	workflow *model.Workflow,
	source interfaces.SourceFetcher,
	toolchain interfaces.Toolchain,
	runner interfaces.CommandRunner,
	publisher *Publisher,
	opts ...JobOption,
) interfaces.JobUseCase {
	uc := &jobUseCase{
		workflow:  workflow,
		source:    source,
		toolchain: toolchain,
		runner:    runner,
		publisher: publisher,
		labels:    DefaultRunnerLabels,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// stepError marks a step that could not complete
type stepError struct {
	step types.StepName
	err  error
}

func (e *stepError) Error() string { return string(e.step) + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

// Execute runs the job within the workflow timeout
func (uc *jobUseCase) Execute(ctx context.Context, job *model.Job) (*model.Job, error) {
	logger := ctxlog.From(ctx).With("job_id", job.ID)
	ctx = ctxlog.With(ctx, logger)

	job = job.Copy()
	job.Status = types.JobStatusRunning
	job.StartedAt = time.Now()
	if err := uc.publisher.Publish(ctx, job); err != nil {
		logger.Warn("Failed to publish running job", "error", err)
	}

	if uc.metrics != nil {
		uc.metrics.RunningJobs.Inc()
		defer uc.metrics.RunningJobs.Dec()
	}

	timeout := uc.workflow.Job.Timeout
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	exitCode, runErr := uc.run(jobCtx, job)
	deadlineHit := errors.Is(jobCtx.Err(), context.DeadlineExceeded)
	cancel()

	job.FinishedAt = time.Now()
	job.ExitCode = exitCode

	switch {
	case ctx.Err() != nil:
		job.Status = types.JobStatusError
		job.ExitCode = -1
		job.Error = "job cancelled: " + ctx.Err().Error()
	case deadlineHit || job.Duration() > timeout:
		job.Status = types.JobStatusTimeout
		job.ExitCode = -1
		job.Error = "job exceeded " + timeout.String()
	case runErr != nil:
		job.Status = types.JobStatusError
		job.ExitCode = -1
		job.Error = runErr.Error()
	case exitCode == 0:
		job.Status = types.JobStatusPassed
	default:
		job.Status = types.JobStatusFailed
	}

	logger.Info("Job finished",
		"status", job.Status,
		"exit_code", job.ExitCode,
		"duration", job.Duration(),
		"error", job.Error,
	)

	if uc.metrics != nil {
		uc.metrics.ObserveJob(job.Status, job.Duration())
	}

	if err := uc.publisher.Publish(context.WithoutCancel(ctx), job); err != nil {
		return job, err
	}
	return job, nil
}

// run executes the steps and returns the linter exit code. A non-nil error means a step
// before the linter verdict failed.
func (uc *jobUseCase) run(ctx context.Context, job *model.Job) (int, error) {
	logger := ctxlog.From(ctx)
	spec := uc.workflow.Job

	// Acquire
	start := time.Now()
	if !slices.Contains(uc.labels, spec.RunsOn) {
		err := goerr.New("no runner matches runs-on",
			goerr.V("runs_on", spec.RunsOn),
			goerr.V("labels", uc.labels),
		)
		uc.record(ctx, job, types.StepAcquire, start, nil, err)
		return -1, &stepError{step: types.StepAcquire, err: err}
	}

	ws, err := uc.source.Fetch(ctx, &job.Trigger)
	if err != nil {
		uc.record(ctx, job, types.StepAcquire, start, nil, err)
		return -1, &stepError{step: types.StepAcquire, err: err}
	}
	defer removeTemp(ctx, ws.TempDir)

	jobDir, err := os.MkdirTemp(uc.tempRoot, "lintgate-job-*")
	if err != nil {
		err = goerr.Wrap(err, "failed to create job directory")
		uc.record(ctx, job, types.StepAcquire, start, nil, err)
		return -1, &stepError{step: types.StepAcquire, err: err}
	}
	defer removeTemp(ctx, jobDir)
	uc.record(ctx, job, types.StepAcquire, start, nil, nil)

	// Provision
	start = time.Now()
	rt, err := uc.toolchain.Provision(ctx, spec.PythonVersion, jobDir)
	if err != nil {
		uc.record(ctx, job, types.StepProvision, start, nil, err)
		return -1, &stepError{step: types.StepProvision, err: err}
	}
	uc.record(ctx, job, types.StepProvision, start, &model.CommandResult{Output: rt.Output}, nil)

	// Install
	start = time.Now()
	installed, err := uc.toolchain.Install(ctx, rt, spec.Install)
	uc.record(ctx, job, types.StepInstall, start, installed, err)
	if err != nil {
		return -1, &stepError{step: types.StepInstall, err: err}
	}

	// Lint
	start = time.Now()
	result, err := uc.runner.Run(ctx, &model.Command{
		Name: rt.Bin(spec.Lint.Command),
		Args: spec.Lint.Argv(),
		Dir:  ws.Dir,
	})
	uc.record(ctx, job, types.StepLint, start, result, err)
	if err != nil {
		return -1, &stepError{step: types.StepLint, err: err}
	}

	if uc.output != nil {
		if _, err := uc.output.Write(result.Output); err != nil {
			logger.Warn("Failed to write lint output", "error", err)
		}
	}

	return result.ExitCode, nil
}

// record appends a step result and stores its output
func (uc *jobUseCase) record(ctx context.Context, job *model.Job, step types.StepName, start time.Time, result *model.CommandResult, err error) {
	logger := ctxlog.From(ctx)

	sr := model.StepResult{
		Name:     step,
		Duration: time.Now().Sub(start),
	}
	if result != nil {
		sr.ExitCode = result.ExitCode
	}
	if err != nil {
		sr.Error = err.Error()
		if result == nil {
			sr.ExitCode = -1
		}
	}

	if uc.logs != nil && result != nil {
		// Step output is kept even when the job deadline has passed
		ref, saveErr := uc.logs.Save(context.WithoutCancel(ctx), job.ID, step, result.Output)
		if saveErr != nil {
			logger.Warn("Failed to save step log", "step", step, "error", saveErr)
		} else {
			sr.LogRef = ref
		}
	}

	logger.Info("Step finished",
		"step", step,
		"exit_code", sr.ExitCode,
		"duration", sr.Duration,
		"error", sr.Error,
	)
	job.Steps = append(job.Steps, sr)
}

func removeTemp(ctx context.Context, dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		ctxlog.From(ctx).Warn("Failed to clean up temporary directory", "temp_dir", dir, "error", err)
	} else {
		ctxlog.From(ctx).Debug("Cleaned up temporary directory", "temp_dir", dir)
	}
}
