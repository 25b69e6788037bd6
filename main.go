package main

import (
	"context"
	"errors"
	"os"

	"github.com/m-mizutani/lintgate/pkg/cli"
	urfave "github.com/urfave/cli/v3"
)

func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		var exitCoder urfave.ExitCoder
		if errors.As(err, &exitCoder) {
			os.Exit(exitCoder.ExitCode())
		}
		os.Exit(1)
	}
}
