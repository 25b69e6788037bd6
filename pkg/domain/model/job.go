package model

import (
	"path/filepath"
	"time"

	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

// Job is one execution of a workflow for a trigger event
type Job struct {
	ID         types.JobID     `json:"id" firestore:"id"`
	Workflow   string          `json:"workflow" firestore:"workflow"`
	Trigger    TriggerEvent    `json:"trigger" firestore:"trigger"`
	Status     types.JobStatus `json:"status" firestore:"status"`
	ExitCode   int             `json:"exit_code" firestore:"exit_code"`
	Error      string          `json:"error,omitempty" firestore:"error"`
	Steps      []StepResult    `json:"steps,omitempty" firestore:"steps"`
	CreatedAt  time.Time       `json:"created_at" firestore:"created_at"`
	StartedAt  time.Time       `json:"started_at,omitzero" firestore:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitzero" firestore:"finished_at"`
}

// NewJob creates a queued job for the event
func NewJob(workflow string, ev TriggerEvent, now time.Time) *Job {
	return &Job{
		ID:        types.NewJobID(),
		Workflow:  workflow,
		Trigger:   ev,
		Status:    types.JobStatusQueued,
		CreatedAt: now,
	}
}

// Duration is the wall-clock time between start and finish
func (j *Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// Copy returns a deep copy so repositories never share step slices with a running job
func (j *Job) Copy() *Job {
	c := *j
	c.Steps = append([]StepResult(nil), j.Steps...)
	return &c
}

// StepResult records one step of a job
type StepResult struct {
	Name     types.StepName `json:"name" firestore:"name"`
	ExitCode int            `json:"exit_code" firestore:"exit_code"`
	Duration time.Duration  `json:"duration" firestore:"duration"`
	LogRef   string         `json:"log_ref,omitempty" firestore:"log_ref"`
	Error    string         `json:"error,omitempty" firestore:"error"`
}

// Command is an external process invocation
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// CommandResult is the outcome of a process that ran to exit
type CommandResult struct {
	ExitCode int
	Output   []byte // combined stdout and stderr
	Duration time.Duration
}

// Success reports a zero exit code
func (r *CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Runtime is a provisioned Python environment
type Runtime struct {
	Version     string // major.minor reported by the interpreter
	Interpreter string // interpreter the environment was created from
	Root        string // virtualenv directory
	Output      []byte // interpreter discovery and virtualenv creation output
}

// Bin returns the path of an executable installed in the environment
func (r *Runtime) Bin(name string) string {
	return filepath.Join(r.Root, "bin", name)
}
