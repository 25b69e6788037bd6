package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/notify"
)

type statusRecorder struct {
	shas     []string
	statuses []*interfaces.CommitStatus
}

func (r *statusRecorder) DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	return nil, nil
}

func (r *statusRecorder) CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *interfaces.CommitStatus) error {
	r.shas = append(r.shas, owner+"/"+repo+"@"+sha)
	r.statuses = append(r.statuses, status)
	return nil
}

func newJob(status types.JobStatus) *model.Job {
	job := model.NewJob("flake8", model.TriggerEvent{
		Kind:      types.EventKindPullRequest,
		Branch:    "develop",
		Owner:     "owner",
		Repo:      "repo",
		CommitSHA: "abc123",
	}, time.Now())
	job.Status = status
	return job
}

func TestGitHubStatus_Report(t *testing.T) {
	tests := []struct {
		status types.JobStatus
		state  string
	}{
		{status: types.JobStatusQueued, state: "pending"},
		{status: types.JobStatusRunning, state: "pending"},
		{status: types.JobStatusPassed, state: "success"},
		{status: types.JobStatusFailed, state: "failure"},
		{status: types.JobStatusError, state: "error"},
		{status: types.JobStatusTimeout, state: "error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			rec := &statusRecorder{}
			reporter := notify.NewGitHubStatus(rec, "https://lint.example.com")

			job := newJob(tt.status)
			gt.NoError(t, reporter.Report(context.Background(), job))

			gt.Number(t, len(rec.statuses)).Equal(1)
			gt.Value(t, rec.shas[0]).Equal("owner/repo@abc123")
			gt.Value(t, rec.statuses[0].State).Equal(tt.state)
			gt.Value(t, rec.statuses[0].Context).Equal("lintgate/flake8")
			gt.Value(t, rec.statuses[0].TargetURL).Equal("https://lint.example.com/jobs/" + job.ID.String())
		})
	}
}

func TestGitHubStatus_Report_LongDescription(t *testing.T) {
	rec := &statusRecorder{}
	reporter := notify.NewGitHubStatus(rec, "")

	job := newJob(types.JobStatusError)
	job.Error = strings.Repeat("x", 500)
	gt.NoError(t, reporter.Report(context.Background(), job))

	gt.Number(t, len(rec.statuses[0].Description)).Equal(140)
	gt.Value(t, rec.statuses[0].TargetURL).Equal("")
}

func TestGitHubStatus_Report_LocalJob(t *testing.T) {
	rec := &statusRecorder{}
	reporter := notify.NewGitHubStatus(rec, "")

	job := model.NewJob("flake8", model.TriggerEvent{Kind: types.EventKindPush, Branch: "develop"}, time.Now())
	gt.NoError(t, reporter.Report(context.Background(), job))
	gt.Number(t, len(rec.statuses)).Equal(0)
}

func TestSlack_Report(t *testing.T) {
	var received []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received = append(received, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reporter := notify.NewSlack(server.URL)
	ctx := context.Background()

	for _, status := range []types.JobStatus{types.JobStatusQueued, types.JobStatusRunning, types.JobStatusPassed} {
		gt.NoError(t, reporter.Report(ctx, newJob(status)))
	}
	gt.Number(t, len(received)).Equal(0)

	job := newJob(types.JobStatusFailed)
	job.ExitCode = 1
	gt.NoError(t, reporter.Report(ctx, job))

	gt.Number(t, len(received)).Equal(1)
	gt.String(t, received[0]["text"].(string)).Contains("Lint failed with exit code 1")
}

func TestSlack_Report_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := notify.NewSlack(server.URL).Report(context.Background(), newJob(types.JobStatusTimeout))
	gt.Error(t, err)
}

func TestSentry_Report(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	gt.NoError(t, err)

	reporter := notify.NewSentry(sentry.NewHub(client, sentry.NewScope()))
	ctx := context.Background()

	for _, status := range []types.JobStatus{types.JobStatusRunning, types.JobStatusPassed, types.JobStatusFailed} {
		gt.NoError(t, reporter.Report(ctx, newJob(status)))
	}
	gt.Number(t, len(events)).Equal(0)

	job := newJob(types.JobStatusError)
	job.Error = "pip install failed"
	gt.NoError(t, reporter.Report(ctx, job))

	gt.Number(t, len(events)).Equal(1)
	gt.Value(t, events[0].Tags["job_id"]).Equal(job.ID.String())
	gt.Value(t, events[0].Tags["status"]).Equal("error")
}
