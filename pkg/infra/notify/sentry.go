package notify

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

// Sentry captures infrastructure errors and timeouts. Lint failures are expected
// outcomes and are not sent.
type Sentry struct {
	hub *sentry.Hub
}

func NewSentry(hub *sentry.Hub) *Sentry {
	return &Sentry{hub: hub}
}

func (x *Sentry) Report(ctx context.Context, job *model.Job) error {
	if job.Status != types.JobStatusError && job.Status != types.JobStatusTimeout {
		return nil
	}

	hub := x.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("job_id", job.ID.String())
		scope.SetTag("status", string(job.Status))
		scope.SetTag("event", string(job.Trigger.Kind))
		scope.SetTag("branch", job.Trigger.Branch)
		if repo := job.Trigger.FullName(); repo != "" {
			scope.SetTag("repository", repo)
		}
		hub.CaptureException(goerr.New(describe(job), goerr.V("job_id", job.ID)))
	})

	return nil
}
