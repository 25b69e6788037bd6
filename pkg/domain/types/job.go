package types

import "github.com/google/uuid"

// JobID identifies a single lint job execution
type JobID string

// NewJobID generates a new random JobID
func NewJobID() JobID {
	return JobID(uuid.NewString())
}

func (x JobID) String() string { return string(x) }

// JobStatus is the lifecycle state of a job
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusPassed  JobStatus = "passed"
	JobStatusFailed  JobStatus = "failed"
	JobStatusError   JobStatus = "error"
	JobStatusTimeout JobStatus = "timeout"
)

// IsTerminal reports whether the job has finished
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusPassed, JobStatusFailed, JobStatusError, JobStatusTimeout:
		return true
	default:
		return false
	}
}

// EventKind is the kind of trigger event
type EventKind string

const (
	EventKindPush        EventKind = "push"
	EventKindPullRequest EventKind = "pull_request"
)

// Valid reports whether the kind is one the runner understands
func (k EventKind) Valid() bool {
	return k == EventKindPush || k == EventKindPullRequest
}

// StepName identifies a job step
type StepName string

const (
	StepAcquire   StepName = "acquire"
	StepProvision StepName = "provision"
	StepInstall   StepName = "install"
	StepLint      StepName = "lint"
)
