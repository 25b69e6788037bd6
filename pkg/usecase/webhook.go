package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/metrics"
	"github.com/m-mizutani/lintgate/pkg/utils/async"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxJobs bounds concurrently running jobs when no limit is configured
const DefaultMaxJobs = 4

type webhookUseCase struct {
	workflow  *model.Workflow
	jobs      interfaces.JobUseCase
	publisher *Publisher

	metrics *metrics.Metrics
	sem     *semaphore.Weighted
	group   async.Group

	// stopping is cancelled when a drain gives up; jobs waiting for a slot then never start
	stopping context.Context
	stop     context.CancelFunc

	mu       sync.Mutex
	inflight map[types.JobID]*model.Job
}

// WebhookOption configures the webhook use case
type WebhookOption func(*webhookUseCase)

// WithMaxJobs bounds the number of jobs running at the same time
func WithMaxJobs(n int64) WebhookOption {
	return func(uc *webhookUseCase) {
		if n > 0 {
			uc.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithEventMetrics counts gated events
func WithEventMetrics(m *metrics.Metrics) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.metrics = m
	}
}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(workflow *model.Workflow, jobs interfaces.JobUseCase, publisher *Publisher, opts ...WebhookOption) *webhookUseCase {
	uc := &webhookUseCase{
		workflow:  workflow,
		jobs:      jobs,
		publisher: publisher,
		sem:       semaphore.NewWeighted(DefaultMaxJobs),
		inflight:  map[types.JobID]*model.Job{},
	}
	uc.stopping, uc.stop = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessEvent gates the event and, when it matches, queues a job that runs in the
// background. It returns nil for skipped events.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.TriggerEvent) (*model.Job, error) {
	logger := ctxlog.From(ctx)

	decision := uc.workflow.Match(event)
	if uc.metrics != nil {
		uc.metrics.ObserveEvent(event.Kind, decision.Matched)
	}

	logger.Info("Processing trigger event",
		"delivery_id", event.DeliveryID,
		"kind", event.Kind,
		"branch", event.Branch,
		"action", event.Action,
		"repository", event.FullName(),
		"matched", decision.Matched,
		"reason", decision.Reason,
	)

	if !decision.Matched {
		return nil, nil
	}

	job := model.NewJob(uc.workflow.Name, *event, time.Now())
	if err := uc.publisher.Publish(ctx, job); err != nil {
		return nil, goerr.Wrap(err, "failed to queue job", goerr.V("delivery_id", event.DeliveryID))
	}

	queued := job.Copy()
	uc.track(queued)
	uc.group.Dispatch(ctx, func(ctx context.Context) error {
		defer uc.untrack(queued.ID)

		ctx = ctxlog.With(ctx, ctxlog.From(ctx).With("job_id", queued.ID))
		if err := uc.sem.Acquire(uc.stopping, 1); err != nil {
			return goerr.Wrap(err, "job not started before shutdown")
		}
		defer uc.sem.Release(1)

		if _, err := uc.jobs.Execute(ctx, queued); err != nil {
			return goerr.Wrap(err, "job execution failed", goerr.V("job_id", queued.ID))
		}
		return nil
	})

	return job, nil
}

func (uc *webhookUseCase) track(job *model.Job) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.inflight[job.ID] = job
}

func (uc *webhookUseCase) untrack(id types.JobID) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.inflight, id)
}

// Drain waits until every dispatched job has finished. When ctx is done first, jobs still
// waiting for a slot are not started, and every unfinished job is recorded as an error
// so its status does not stay pending.
func (uc *webhookUseCase) Drain(ctx context.Context) error {
	err := uc.group.Wait(ctx)
	if err == nil {
		return nil
	}

	uc.stop()

	uc.mu.Lock()
	leftover := make([]*model.Job, 0, len(uc.inflight))
	for _, job := range uc.inflight {
		leftover = append(leftover, job.Copy())
	}
	uc.mu.Unlock()

	logger := ctxlog.From(ctx)
	publishCtx := context.WithoutCancel(ctx)
	now := time.Now()
	for _, job := range leftover {
		job.Status = types.JobStatusError
		job.ExitCode = -1
		job.Error = "runner shut down before the job finished"
		job.FinishedAt = now
		if pubErr := uc.publisher.Publish(publishCtx, job); pubErr != nil {
			logger.Warn("Failed to record abandoned job", "job_id", job.ID, "error", pubErr)
		}
	}

	return goerr.Wrap(err, "jobs abandoned at shutdown", goerr.V("count", len(leftover)))
}
