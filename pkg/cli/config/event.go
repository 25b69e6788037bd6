package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Event describes a trigger event given on the command line
type Event struct {
	Kind   string
	Ref    string
	Action string
}

// Flags returns CLI flags for the trigger event
func (c *Event) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "event",
			Aliases:     []string{"e"},
			Usage:       "Event kind (push, pull_request)",
			Value:       string(types.EventKindPush),
			Destination: &c.Kind,
			Sources:     cli.EnvVars("LINTGATE_EVENT"),
		},
		&cli.StringFlag{
			Name:        "branch",
			Aliases:     []string{"b"},
			Usage:       "Target branch, or a full ref such as refs/heads/develop",
			Required:    true,
			Destination: &c.Ref,
			Sources:     cli.EnvVars("LINTGATE_BRANCH"),
		},
		&cli.StringFlag{
			Name:        "action",
			Usage:       "pull_request action (opened, synchronize, ...)",
			Destination: &c.Action,
			Sources:     cli.EnvVars("LINTGATE_ACTION"),
		},
	}
}

// Trigger converts the flags into a trigger event
func (c *Event) Trigger() (*model.TriggerEvent, error) {
	kind := types.EventKind(c.Kind)
	if !kind.Valid() {
		return nil, goerr.New("unsupported event kind", goerr.V("event", c.Kind))
	}

	return &model.TriggerEvent{
		Kind:   kind,
		Branch: model.BranchFromRef(c.Ref),
		Action: c.Action,
	}, nil
}
