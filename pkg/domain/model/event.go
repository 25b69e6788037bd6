package model

import (
	"strings"

	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

const (
	refHeadsPrefix = "refs/heads/"
)

// TriggerEvent is an inbound event that may start a job
type TriggerEvent struct {
	Kind       types.EventKind `json:"kind" firestore:"kind"`
	Branch     string          `json:"branch" firestore:"branch"` // target branch; empty for tag pushes
	Action     string          `json:"action,omitempty" firestore:"action"`
	Owner      string          `json:"owner,omitempty" firestore:"owner"`
	Repo       string          `json:"repo,omitempty" firestore:"repo"`
	CommitSHA  string          `json:"commit_sha,omitempty" firestore:"commit_sha"`
	Sender     string          `json:"sender,omitempty" firestore:"sender"`
	DeliveryID string          `json:"delivery_id,omitempty" firestore:"delivery_id"`
}

// FullName returns owner/repo, or an empty string when the repository is unknown
func (e *TriggerEvent) FullName() string {
	if e.Owner == "" || e.Repo == "" {
		return ""
	}
	return e.Owner + "/" + e.Repo
}

// BranchFromRef extracts the branch name from a git ref. Tags and other refs yield
// an empty string. A bare name without refs/ prefix is returned as is.
func BranchFromRef(ref string) string {
	switch {
	case strings.HasPrefix(ref, refHeadsPrefix):
		return strings.TrimPrefix(ref, refHeadsPrefix)
	case strings.HasPrefix(ref, "refs/"):
		return ""
	default:
		return ref
	}
}
