// Package notify publishes job status to external systems.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

// maxDescriptionLength is the GitHub limit for commit status descriptions
const maxDescriptionLength = 140

// GitHubStatus mirrors job status as a commit status on the triggering commit
type GitHubStatus struct {
	client  interfaces.GitHubClient
	baseURL string
}

// NewGitHubStatus creates a reporter. baseURL, when set, is used to link each
// status to GET /jobs/{id} of this service.
func NewGitHubStatus(client interfaces.GitHubClient, baseURL string) *GitHubStatus {
	return &GitHubStatus{
		client:  client,
		baseURL: baseURL,
	}
}

// StatusContext is the commit status context for a workflow
func StatusContext(workflow string) string {
	return types.ServiceName + "/" + workflow
}

func (x *GitHubStatus) Report(ctx context.Context, job *model.Job) error {
	ev := job.Trigger
	if ev.Owner == "" || ev.Repo == "" || ev.CommitSHA == "" {
		return nil
	}

	status := &interfaces.CommitStatus{
		State:       commitState(job.Status),
		Context:     StatusContext(job.Workflow),
		Description: truncate(describe(job), maxDescriptionLength),
	}
	if x.baseURL != "" {
		status.TargetURL = x.baseURL + "/jobs/" + job.ID.String()
	}

	return x.client.CreateCommitStatus(ctx, ev.Owner, ev.Repo, ev.CommitSHA, status)
}

func commitState(s types.JobStatus) string {
	switch s {
	case types.JobStatusPassed:
		return "success"
	case types.JobStatusFailed:
		return "failure"
	case types.JobStatusError, types.JobStatusTimeout:
		return "error"
	default:
		return "pending"
	}
}

// describe renders a one-line summary of the job status
func describe(job *model.Job) string {
	switch job.Status {
	case types.JobStatusQueued:
		return "Waiting for a runner"
	case types.JobStatusRunning:
		return "Linting"
	case types.JobStatusPassed:
		return fmt.Sprintf("Lint passed in %s", job.Duration().Round(time.Second))
	case types.JobStatusFailed:
		return fmt.Sprintf("Lint failed with exit code %d", job.ExitCode)
	case types.JobStatusTimeout:
		return "Job exceeded its time limit"
	case types.JobStatusError:
		return "Infrastructure error: " + job.Error
	default:
		return string(job.Status)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
