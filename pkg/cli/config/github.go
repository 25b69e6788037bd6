package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub App and webhook configuration
type GitHub struct {
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	WebhookSecret  string `masq:"secret"`
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Required:    true,
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("LINTGATE_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("LINTGATE_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("LINTGATE_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("LINTGATE_GITHUB_PRIVATE_KEY"),
		},
	}
}

// Validate checks that the App settings are either all set or all empty
func (c *GitHub) Validate() error {
	set := 0
	for _, ok := range []bool{c.AppID != 0, c.InstallationID != 0, c.PrivateKey != ""} {
		if ok {
			set++
		}
	}
	if set != 0 && set != 3 {
		return goerr.New("github-app-id, github-installation-id and github-private-key must be set together")
	}
	return nil
}

// Configured reports whether a GitHub App is configured
func (c *GitHub) Configured() bool {
	return c.AppID != 0 && c.InstallationID != 0 && c.PrivateKey != ""
}

// NewClient creates a GitHub App client
func (c *GitHub) NewClient() (interfaces.GitHubClient, error) {
	if !c.Configured() {
		return nil, goerr.New("GitHub App is not configured")
	}
	return github.NewClientFromConfig(c.AppID, c.InstallationID, c.PrivateKey)
}
