package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/atlanticdynamic/appforge/internal/job"
	"github.com/atlanticdynamic/appforge/internal/pipeline"
	"github.com/urfave/cli/v3"
)

var generateCmd = &cli.Command{
	Name:      "generate",
	Aliases:   []string{"gen"},
	Usage:     "Run one build in-process for an app description",
	ArgsUsage: "<app.json | ->",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    configFlagName,
			Usage:   "Path to TOML configuration file",
			Aliases: []string{"c"},
			Sources: cli.EnvVars("APPFORGE_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "existing-job",
			Usage: "Caller-supplied correlation id recorded in the job log",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the final job status as JSON",
		},
	},
	Action: generateAction,
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return cli.Exit("app description path required (use - to read from stdin)", 1)
	}
	payload, err := readPayload(cmd.Args().First(), cmd.Root().Reader)
	if err != nil {
		return cli.Exit(err, 1)
	}

	cfg, err := loadConfig(cmd.String(configFlagName))
	if err != nil {
		return cli.Exit(err, 1)
	}
	handler, err := setupLogger(cfg, cmd.Root().String("log-level"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	p, err := pipeline.FromConfig(cfg, handler, nil)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to create pipeline: %w", err), 1)
	}

	// Job records are held back and only replayed when the build fails.
	quiet := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	j, err := job.New(payload, cmd.String("existing-job"), quiet)
	if err != nil {
		return cli.Exit(err, 1)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	j.SetCancelFunc(cancel)

	runErr := p.Run(jobCtx, j)
	if err := printStatus(cmd.Root().Writer, j, cmd.Bool("json")); err != nil {
		return cli.Exit(err, 1)
	}
	if runErr == nil {
		return nil
	}

	if playErr := j.PlaybackLogs(handler); playErr != nil {
		slog.Warn("Failed to replay job logs", "error", playErr)
	}
	var failure *job.Failure
	if errors.As(runErr, &failure) && len(failure.Output()) > 0 {
		fmt.Fprintf(cmd.Root().ErrWriter, "\nToolchain output:\n%s\n", failure.Output())
	}
	return cli.Exit(fmt.Errorf("build %s failed: %w", j.ID, runErr), 1)
}

// readPayload reads the app description from path, or from stdin when path is "-".
func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read app description from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read app description: %w", err)
	}
	return data, nil
}

func printStatus(w io.Writer, j *job.BuildJob, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, j.String())
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.Status())
}
