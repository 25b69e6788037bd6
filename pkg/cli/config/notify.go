package config

import (
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/notify"
	"github.com/urfave/cli/v3"
)

// Notify holds settings of the Slack and Sentry reporters
type Notify struct {
	SlackWebhookURL string `masq:"secret"`
	SentryDSN       string `masq:"secret"`
	SentryEnv       string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for failed jobs",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("LINTGATE_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for infrastructure errors and timeouts",
			Destination: &c.SentryDSN,
			Sources:     cli.EnvVars("LINTGATE_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Destination: &c.SentryEnv,
			Sources:     cli.EnvVars("LINTGATE_SENTRY_ENV"),
		},
	}
}

// NewSentryHub creates a Sentry hub, or nil when no DSN is set
func (c *Notify) NewSentryHub() (*sentry.Hub, error) {
	if c.SentryDSN == "" {
		return nil, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         c.SentryDSN,
		Environment: c.SentryEnv,
		Release:     types.ServiceName + "@" + types.Version,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Sentry client")
	}
	return sentry.NewHub(client, sentry.NewScope()), nil
}

// Reporters returns the Slack and Sentry reporters that are configured
func (c *Notify) Reporters(hub *sentry.Hub) []interfaces.Reporter {
	var reporters []interfaces.Reporter
	if c.SlackWebhookURL != "" {
		reporters = append(reporters, notify.NewSlack(c.SlackWebhookURL))
	}
	if hub != nil {
		reporters = append(reporters, notify.NewSentry(hub))
	}
	return reporters
}
