package model

import (
	"path"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

const (
	// DefaultTimeout bounds a job when the workflow does not set timeout-minutes
	DefaultTimeout = 10 * time.Minute
)

// DefaultPullRequestTypes are the pull_request actions that trigger a job when the
// workflow does not list any
var DefaultPullRequestTypes = []string{"opened", "synchronize", "reopened"}

// Workflow is a trigger-gated lint job definition
type Workflow struct {
	Name string
	On   Triggers
	Job  JobSpec
}

// Triggers holds the branch filters per event kind. A nil filter disables the kind.
type Triggers struct {
	Push        *BranchFilter
	PullRequest *BranchFilter
}

// BranchFilter selects branches by exact name or glob pattern
type BranchFilter struct {
	Branches []string
	Types    []string // pull_request actions; ignored for push
}

// JobSpec describes the execution environment and the lint invocation
type JobSpec struct {
	RunsOn        string
	Timeout       time.Duration
	PythonVersion string
	Install       []string
	Lint          LintCommand
}

// LintCommand is the fixed linter invocation
type LintCommand struct {
	Command string
	Args    []string
	Paths   []string
}

// Argv returns the arguments passed to the linter: options first, then paths
func (c LintCommand) Argv() []string {
	argv := make([]string, 0, len(c.Args)+len(c.Paths))
	argv = append(argv, c.Args...)
	argv = append(argv, c.Paths...)
	return argv
}

// TriggerDecision is the result of gating an event against a workflow
type TriggerDecision struct {
	Matched bool
	Reason  string
}

// Match decides whether the event starts a job
func (w *Workflow) Match(ev *TriggerEvent) TriggerDecision {
	var filter *BranchFilter
	switch ev.Kind {
	case types.EventKindPush:
		filter = w.On.Push
	case types.EventKindPullRequest:
		filter = w.On.PullRequest
	default:
		return TriggerDecision{Reason: "unsupported event kind: " + string(ev.Kind)}
	}

	if filter == nil {
		return TriggerDecision{Reason: "workflow has no " + string(ev.Kind) + " trigger"}
	}
	if ev.Branch == "" {
		return TriggerDecision{Reason: "event has no target branch"}
	}

	if ev.Kind == types.EventKindPullRequest && ev.Action != "" {
		actions := filter.Types
		if len(actions) == 0 {
			actions = DefaultPullRequestTypes
		}
		if !slices.Contains(actions, ev.Action) {
			return TriggerDecision{Reason: "pull_request action not configured: " + ev.Action}
		}
	}

	if !filter.MatchBranch(ev.Branch) {
		return TriggerDecision{Reason: "branch not configured: " + ev.Branch}
	}

	return TriggerDecision{Matched: true, Reason: "branch matched: " + ev.Branch}
}

// MatchBranch reports whether branch is listed, either literally or by glob
func (f *BranchFilter) MatchBranch(branch string) bool {
	for _, pattern := range f.Branches {
		if pattern == branch {
			return true
		}
		if ok, err := path.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}

// Validate checks the workflow is runnable
func (w *Workflow) Validate() error {
	if w.On.Push == nil && w.On.PullRequest == nil {
		return goerr.New("workflow has no trigger", goerr.V("name", w.Name))
	}
	for _, f := range []*BranchFilter{w.On.Push, w.On.PullRequest} {
		if f == nil {
			continue
		}
		for _, pattern := range f.Branches {
			if _, err := path.Match(pattern, ""); err != nil {
				return goerr.Wrap(err, "invalid branch pattern", goerr.V("pattern", pattern))
			}
		}
	}

	if w.Job.Timeout <= 0 {
		return goerr.New("timeout must be positive", goerr.V("timeout", w.Job.Timeout))
	}
	if w.Job.RunsOn == "" {
		return goerr.New("runs-on is required")
	}
	if w.Job.PythonVersion == "" {
		return goerr.New("python-version is required")
	}
	if len(w.Job.Install) == 0 {
		return goerr.New("install must list at least one package")
	}
	if w.Job.Lint.Command == "" {
		return goerr.New("lint command is required")
	}

	return nil
}
