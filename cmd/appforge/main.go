package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "appforge",
		Version: Version,
		Usage:   "Generate Flutter applications from a JSON description",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Override the configured log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("APPFORGE_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			serverCmd,
			generateCmd,
			validateCmd,
			versionCmd,
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
