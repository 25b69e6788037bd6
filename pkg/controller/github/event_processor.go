package github

import (
	"context"
	"errors"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

// ErrInvalidPayload is returned when a supported event lacks the fields a job needs
var ErrInvalidPayload = errors.New("invalid webhook payload")

// EventProcessor converts GitHub webhook payloads into trigger events
type EventProcessor struct {
	webhookUC interfaces.WebhookUseCase
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(webhookUC interfaces.WebhookUseCase) *EventProcessor {
	return &EventProcessor{
		webhookUC: webhookUC,
	}
}

// ProcessEvent handles a parsed webhook payload. It returns the queued job, or nil when
// the event does not start one.
func (p *EventProcessor) ProcessEvent(ctx context.Context, event *model.WebhookEvent, payload any) (*model.Job, error) {
	logger := ctxlog.From(ctx)

	var (
		trigger *model.TriggerEvent
		err     error
	)

	switch e := payload.(type) {
	case *github.PushEvent:
		if e.GetDeleted() {
			logger.Info("Ignoring branch deletion push", "ref", e.GetRef())
			return nil, nil
		}
		trigger, err = pushTrigger(e)
	case *github.PullRequestEvent:
		trigger, err = pullRequestTrigger(e)
	default:
		logger.Info("Ignoring unsupported event type", "event_type", event.Type)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	trigger.DeliveryID = event.ID
	return p.webhookUC.ProcessEvent(ctx, trigger)
}

func pushTrigger(e *github.PushEvent) (*model.TriggerEvent, error) {
	repo := e.GetRepo()
	owner := repo.GetOwner().GetLogin()
	if owner == "" {
		owner = repo.GetOwner().GetName()
	}

	trigger := &model.TriggerEvent{
		Kind:      types.EventKindPush,
		Branch:    model.BranchFromRef(e.GetRef()),
		Owner:     owner,
		Repo:      repo.GetName(),
		CommitSHA: e.GetAfter(),
		Sender:    e.GetSender().GetLogin(),
	}
	if err := validateTrigger(trigger); err != nil {
		return nil, goerr.Wrap(err, "invalid push event", goerr.V("ref", e.GetRef()))
	}
	return trigger, nil
}

func pullRequestTrigger(e *github.PullRequestEvent) (*model.TriggerEvent, error) {
	pr := e.GetPullRequest()
	trigger := &model.TriggerEvent{
		Kind:      types.EventKindPullRequest,
		Branch:    pr.GetBase().GetRef(),
		Action:    e.GetAction(),
		Owner:     e.GetRepo().GetOwner().GetLogin(),
		Repo:      e.GetRepo().GetName(),
		CommitSHA: pr.GetHead().GetSHA(),
		Sender:    e.GetSender().GetLogin(),
	}
	if err := validateTrigger(trigger); err != nil {
		return nil, goerr.Wrap(err, "invalid pull_request event", goerr.V("number", e.GetNumber()))
	}
	return trigger, nil
}

func validateTrigger(ev *model.TriggerEvent) error {
	if ev.Owner == "" || ev.Repo == "" || ev.CommitSHA == "" {
		return goerr.Wrap(ErrInvalidPayload, "missing required fields",
			goerr.V("owner", ev.Owner),
			goerr.V("repo", ev.Repo),
			goerr.V("commit_sha", ev.CommitSHA),
		)
	}
	return nil
}
