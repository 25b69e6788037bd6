package interfaces

import (
	"context"

	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

// JobRepository stores job records
type JobRepository interface {
	Put(ctx context.Context, job *model.Job) error
	// Get returns nil without error when the job does not exist
	Get(ctx context.Context, id types.JobID) (*model.Job, error)
	// List returns the most recently created jobs first
	List(ctx context.Context, limit int) ([]*model.Job, error)
}

// LogStore keeps step output
type LogStore interface {
	// Save stores the output and returns a reference to it
	Save(ctx context.Context, id types.JobID, step types.StepName, data []byte) (string, error)
}

// Reporter publishes job status changes
type Reporter interface {
	Report(ctx context.Context, job *model.Job) error
}
