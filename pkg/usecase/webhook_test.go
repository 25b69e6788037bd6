package usecase_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/metrics"
	"github.com/m-mizutani/lintgate/pkg/infra/repository"
	"github.com/m-mizutani/lintgate/pkg/infra/workflow"
	"github.com/m-mizutani/lintgate/pkg/usecase"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeJobUseCase struct {
	mu       sync.Mutex
	executed []*model.Job
	running  atomic.Int32
	peak     atomic.Int32
	hold     time.Duration
	block    chan struct{}
}

func (f *fakeJobUseCase) Execute(ctx context.Context, job *model.Job) (*model.Job, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(f.hold)
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, job)

	done := job.Copy()
	done.Status = types.JobStatusPassed
	return done, nil
}

func newWebhookUseCase(t *testing.T, jobs *fakeJobUseCase, opts ...usecase.WebhookOption) (*repository.Memory, *metrics.Metrics, interface {
	ProcessEvent(ctx context.Context, event *model.TriggerEvent) (*model.Job, error)
	Drain(ctx context.Context) error
}) {
	t.Helper()
	wf, err := workflow.Default()
	gt.NoError(t, err)

	repo := repository.NewMemory()
	m := metrics.New()
	opts = append([]usecase.WebhookOption{usecase.WithEventMetrics(m)}, opts...)
	return repo, m, usecase.NewWebhook(wf, jobs, usecase.NewPublisher(repo), opts...)
}

func TestWebhookUseCase_ProcessEvent(t *testing.T) {
	testCases := map[string]struct {
		event   *model.TriggerEvent
		matched bool
	}{
		"push to develop": {
			event:   &model.TriggerEvent{Kind: types.EventKindPush, Branch: "develop"},
			matched: true,
		},
		"push to GSoC branch": {
			event:   &model.TriggerEvent{Kind: types.EventKindPush, Branch: "GSOC2023-ShubhGaur"},
			matched: true,
		},
		"pull request into stable": {
			event:   &model.TriggerEvent{Kind: types.EventKindPullRequest, Branch: "stable", Action: "opened"},
			matched: true,
		},
		"push to feature branch": {
			event:   &model.TriggerEvent{Kind: types.EventKindPush, Branch: "feature/x"},
			matched: false,
		},
		"pull request into main": {
			event:   &model.TriggerEvent{Kind: types.EventKindPullRequest, Branch: "main", Action: "opened"},
			matched: false,
		},
		"closed pull request": {
			event:   &model.TriggerEvent{Kind: types.EventKindPullRequest, Branch: "develop", Action: "closed"},
			matched: false,
		},
		"tag push": {
			event:   &model.TriggerEvent{Kind: types.EventKindPush, Branch: ""},
			matched: false,
		},
		"unknown kind": {
			event:   &model.TriggerEvent{Kind: "release", Branch: "develop"},
			matched: false,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			jobs := &fakeJobUseCase{}
			repo, m, uc := newWebhookUseCase(t, jobs)
			ctx := context.Background()

			job, err := uc.ProcessEvent(ctx, tc.event)
			gt.NoError(t, err)
			gt.NoError(t, uc.Drain(ctx))

			decision := "skipped"
			if tc.matched {
				decision = "matched"
			}
			gt.Number(t, testutil.ToFloat64(m.EventsTotal.WithLabelValues(string(tc.event.Kind), decision))).Equal(1)

			if !tc.matched {
				gt.Value(t, job).Nil()
				gt.Number(t, len(jobs.executed)).Equal(0)
				return
			}

			gt.Value(t, job).NotNil()
			gt.Value(t, job.Status).Equal(types.JobStatusQueued)
			gt.Value(t, job.Workflow).Equal("flake8")
			gt.Value(t, job.Trigger.Branch).Equal(tc.event.Branch)

			stored, err := repo.Get(ctx, job.ID)
			gt.NoError(t, err)
			gt.Value(t, stored).NotNil()

			gt.Number(t, len(jobs.executed)).Equal(1)
			gt.Value(t, jobs.executed[0].ID).Equal(job.ID)
		})
	}
}

func TestWebhookUseCase_MaxJobs(t *testing.T) {
	jobs := &fakeJobUseCase{hold: 30 * time.Millisecond}
	_, _, uc := newWebhookUseCase(t, jobs, usecase.WithMaxJobs(2))
	ctx := context.Background()

	for range 6 {
		job, err := uc.ProcessEvent(ctx, &model.TriggerEvent{Kind: types.EventKindPush, Branch: "stable"})
		gt.NoError(t, err)
		gt.Value(t, job).NotNil()
	}

	drainCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	gt.NoError(t, uc.Drain(drainCtx))

	gt.Number(t, len(jobs.executed)).Equal(6)
	gt.Number(t, jobs.peak.Load()).LessOrEqual(2)
}

func TestWebhookUseCase_Drain_AbandonedJobs(t *testing.T) {
	jobs := &fakeJobUseCase{block: make(chan struct{})}
	t.Cleanup(func() { close(jobs.block) })

	repo, _, uc := newWebhookUseCase(t, jobs, usecase.WithMaxJobs(1))
	ctx := context.Background()

	var ids []types.JobID
	for range 3 {
		job, err := uc.ProcessEvent(ctx, &model.TriggerEvent{Kind: types.EventKindPush, Branch: "develop"})
		gt.NoError(t, err)
		ids = append(ids, job.ID)
	}

	drainCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	gt.Error(t, uc.Drain(drainCtx))

	for _, id := range ids {
		stored, err := repo.Get(ctx, id)
		gt.NoError(t, err)
		gt.Value(t, stored.Status).Equal(types.JobStatusError)
		gt.Value(t, stored.ExitCode).Equal(-1)
		gt.String(t, stored.Error).Contains("shut down")
		gt.False(t, stored.FinishedAt.IsZero())
	}

	// queued jobs never start once the drain has given up
	gt.Number(t, jobs.running.Load()).LessOrEqual(1)
}
