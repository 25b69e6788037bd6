package github

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
)

// maxRedirects is passed to the archive link lookup
const maxRedirects = 3

type client struct {
	githubClient *github.Client
}

// NewClient creates a new GitHub client with App authentication
func NewClient(appID, installationID int64, privateKey []byte) (interfaces.GitHubClient, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
		)
	}

	return &client{
		githubClient: github.NewClient(&http.Client{Transport: itr}),
	}, nil
}

// NewClientFromConfig creates a client from a PEM private key given as a string
func NewClientFromConfig(appID, installationID int64, privateKey string) (interfaces.GitHubClient, error) {
	return NewClient(appID, installationID, []byte(privateKey))
}

// NewClientWithHTTP creates a client on top of an existing HTTP client and API base URL.
// baseURL must end with a slash.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) (interfaces.GitHubClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid GitHub API base URL", goerr.V("base_url", baseURL))
	}

	gh := github.NewClient(httpClient)
	gh.BaseURL = u
	return &client{githubClient: gh}, nil
}

// DownloadZipball downloads the source code zipball for a specific commit
func (c *client) DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	link, _, err := c.githubClient.Repositories.GetArchiveLink(ctx, owner, repo, github.Zipball, &github.RepositoryContentGetOptions{
		Ref: ref,
	}, maxRedirects)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get zipball download URL",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("ref", ref),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create download request", goerr.V("url", link.String()))
	}

	// Use the same client transport for authentication
	httpClient := &http.Client{Transport: c.githubClient.Client().Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download zipball", goerr.V("url", link.String()))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code",
			goerr.V("status", resp.StatusCode),
			goerr.V("url", link.String()),
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body")
	}

	return data, nil
}

// CreateCommitStatus sets a commit status on sha
func (c *client) CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *interfaces.CommitStatus) error {
	input := &github.RepoStatus{
		State:       github.Ptr(status.State),
		Context:     github.Ptr(status.Context),
		Description: github.Ptr(status.Description),
	}
	if status.TargetURL != "" {
		input.TargetURL = github.Ptr(status.TargetURL)
	}

	if _, _, err := c.githubClient.Repositories.CreateStatus(ctx, owner, repo, sha, input); err != nil {
		return goerr.Wrap(err, "failed to create commit status",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("sha", sha),
			goerr.V("state", status.State),
		)
	}
	return nil
}
