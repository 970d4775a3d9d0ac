package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
	"github.com/atlanticdynamic/appforge/internal/config"
	"github.com/urfave/cli/v3"
)

var validateCmd = &cli.Command{
	Name:    "validate",
	Aliases: []string{"lint"},
	Usage:   "Validate a configuration file and/or an app description",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "tree",
			Aliases: []string{"t"},
			Usage:   "Show detailed tree view of the validated configuration",
		},
		&cli.StringFlag{
			Name:    configFlagName,
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file",
		},
		&cli.StringFlag{
			Name:    "app",
			Aliases: []string{"a"},
			Usage:   "Path to an app description (JSON) to validate, - for stdin",
		},
	},
	Suggest: true,
	Action:  validateAction,
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	setupCLILogger(cmd.Root().String("log-level"))

	configPath := cmd.String(configFlagName)
	if configPath == "" && cmd.Args().Len() > 0 {
		configPath = cmd.Args().First()
	}
	appPath := cmd.String("app")
	if configPath == "" && appPath == "" {
		return cli.Exit(
			"config file path or --app required (use the --config flag, or provide the config file as positional argument)",
			1,
		)
	}

	out := cmd.Root().Writer
	var errs []error
	if configPath != "" {
		if err := validateConfigFile(out, configPath, cmd.Bool("tree")); err != nil {
			errs = append(errs, err)
		}
	}
	if appPath != "" {
		if err := validateAppFile(out, appPath, cmd.Root().Reader); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func validateConfigFile(w io.Writer, path string, treeView bool) error {
	cfg, err := config.NewConfig(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	fmt.Fprintf(w, "Configuration file %s is valid\n", path)

	if treeView {
		fmt.Fprintln(w, cfg)
		return nil
	}
	fmt.Fprintln(w, renderConfigSummary(path, cfg))
	return nil
}

func validateAppFile(w io.Writer, path string, stdin io.Reader) error {
	payload, err := readPayload(path, stdin)
	if err != nil {
		return err
	}
	app, err := appconfig.Validate(payload)
	if err != nil {
		return fmt.Errorf("app description %s is invalid: %w", path, err)
	}
	fmt.Fprintf(w, "App description %s is valid: %s (%s), %d pages\n",
		path, app.AppName, app.Identifier, len(app.Pages))
	return nil
}

// renderConfigSummary creates a formatted summary string for the configuration
func renderConfigSummary(path string, cfg *config.Config) string {
	var summary strings.Builder

	summary.WriteString("\nConfig Summary:\n")
	summary.WriteString(fmt.Sprintf("- Path: %s\n", path))
	summary.WriteString(fmt.Sprintf("- Version: %s\n", cfg.Version))
	summary.WriteString(fmt.Sprintf("- Template: %s\n", cfg.Paths.TemplateDir))
	summary.WriteString(fmt.Sprintf("- Workers: %d\n", cfg.Pool.MaxConcurrentJobs))
	summary.WriteString(fmt.Sprintf("- Listen: %s\n", cfg.HTTP.Listen))
	summary.WriteString("\nUse --tree for a more detailed view of the config.")

	return summary.String()
}
