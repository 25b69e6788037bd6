package interfaces

import (
	"context"

	"github.com/m-mizutani/lintgate/pkg/domain/model"
)

// WebhookUseCase gates trigger events and starts jobs for matching ones
type WebhookUseCase interface {
	// ProcessEvent returns the queued job, or nil when the event was skipped
	ProcessEvent(ctx context.Context, event *model.TriggerEvent) (*model.Job, error)
}

// JobUseCase runs a job to completion
type JobUseCase interface {
	// Execute runs every step of the job and returns the finished job. The returned error
	// is non-nil only when the job record could not be saved; lint failures,
	// infrastructure errors and timeouts are expressed in Job.Status.
	Execute(ctx context.Context, job *model.Job) (*model.Job, error)
}
