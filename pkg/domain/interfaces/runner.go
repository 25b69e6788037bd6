package interfaces

import (
	"context"

	"github.com/m-mizutani/lintgate/pkg/domain/model"
)

// CommandRunner executes external processes. A process that ran and exited non-zero is
// not an error; the error covers failures to start and context expiry.
type CommandRunner interface {
	Run(ctx context.Context, cmd *model.Command) (*model.CommandResult, error)
}

// Toolchain provisions the language runtime and installs packages into it
type Toolchain interface {
	Provision(ctx context.Context, version, dir string) (*model.Runtime, error)
	Install(ctx context.Context, rt *model.Runtime, packages []string) (*model.CommandResult, error)
}

// SourceFetcher materializes the source tree an event points at
type SourceFetcher interface {
	Fetch(ctx context.Context, ev *model.TriggerEvent) (*model.Workspace, error)
}
