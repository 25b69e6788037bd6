package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/lintgate/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

// exitSkipped is returned by match when the event does not start a job
const exitSkipped = 2

func cmdMatch() *cli.Command {
	var (
		eventCfg    config.Event
		workflowCfg config.Workflow
	)

	flags := append(eventCfg.Flags(), workflowCfg.Flags()...)

	return &cli.Command{
		Name:    "match",
		Aliases: []string{"m"},
		Usage:   "Evaluate the trigger gate for an event; exits 0 when a job would run, 2 when it is skipped and 1 on errors",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ev, err := eventCfg.Trigger()
			if err != nil {
				return err
			}

			wf, err := workflowCfg.Load()
			if err != nil {
				return err
			}

			decision := wf.Match(ev)
			w := c.Root().Writer
			if decision.Matched {
				fmt.Fprintf(w, "%s %s (%s on %s)\n", color.GreenString("MATCHED"), wf.Name, ev.Kind, ev.Branch)
				return nil
			}

			fmt.Fprintf(w, "%s %s\n", color.YellowString("SKIPPED"), decision.Reason)
			return cli.Exit("", exitSkipped)
		},
	}
}
