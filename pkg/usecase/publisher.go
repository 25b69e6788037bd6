package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
)

// Publisher saves job records and fans status changes out to reporters
type Publisher struct {
	repo      interfaces.JobRepository
	reporters []interfaces.Reporter
}

// NewPublisher creates a Publisher. Reporters are called in order.
func NewPublisher(repo interfaces.JobRepository, reporters ...interfaces.Reporter) *Publisher {
	return &Publisher{
		repo:      repo,
		reporters: reporters,
	}
}

// Publish saves the job and then notifies reporters. Only the save error is returned;
// reporter errors are logged.
func (p *Publisher) Publish(ctx context.Context, job *model.Job) error {
	logger := ctxlog.From(ctx)

	if err := p.repo.Put(ctx, job); err != nil {
		return goerr.Wrap(err, "failed to save job", goerr.V("job_id", job.ID), goerr.V("status", job.Status))
	}

	for _, r := range p.reporters {
		if err := r.Report(ctx, job); err != nil {
			logger.Warn("Failed to report job status",
				"job_id", job.ID,
				"status", job.Status,
				"error", err,
			)
		}
	}

	return nil
}
