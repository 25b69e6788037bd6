package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Slack posts a message to an incoming webhook when a job ends without passing
type Slack struct {
	webhookURL string
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL}
}

func (x *Slack) Report(ctx context.Context, job *model.Job) error {
	if !job.Status.IsTerminal() || job.Status == types.JobStatusPassed {
		return nil
	}

	color := "danger"
	if job.Status != types.JobStatusFailed {
		color = "warning"
	}

	repo := job.Trigger.FullName()
	if repo == "" {
		repo = "(local)"
	}

	fields := []slack.AttachmentField{
		{Title: "Repository", Value: repo, Short: true},
		{Title: "Branch", Value: job.Trigger.Branch, Short: true},
		{Title: "Event", Value: string(job.Trigger.Kind), Short: true},
		{Title: "Status", Value: string(job.Status), Short: true},
	}
	if job.Trigger.CommitSHA != "" {
		fields = append(fields, slack.AttachmentField{Title: "Commit", Value: job.Trigger.CommitSHA, Short: true})
	}
	if job.Error != "" {
		fields = append(fields, slack.AttachmentField{Title: "Error", Value: job.Error})
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("%s: %s", StatusContext(job.Workflow), describe(job)),
		Attachments: []slack.Attachment{
			{
				Color:  color,
				Fields: fields,
				Footer: "job " + job.ID.String(),
			},
		},
	}

	if err := slack.PostWebhookContext(ctx, x.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack message", goerr.V("job_id", job.ID))
	}
	return nil
}
