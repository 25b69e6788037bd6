package interfaces

import (
	"context"
)

// GitHubClient defines operations for interacting with GitHub API
type GitHubClient interface {
	// DownloadZipball downloads the source code zipball for a specific commit
	DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error)

	// CreateCommitStatus sets a commit status on the given commit
	CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *CommitStatus) error
}

// CommitStatus is a GitHub commit status payload
type CommitStatus struct {
	State       string // pending, success, failure or error
	Context     string
	Description string
	TargetURL   string
}
