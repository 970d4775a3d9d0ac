package config

import (
	"fmt"
	"strings"

	"github.com/atlanticdynamic/appforge/internal/fancy"
)

// String returns a pretty-printed tree representation of the config
func (c *Config) String() string {
	return ConfigTree(c)
}

// ConfigTree converts a Config struct into a rendered tree string
func ConfigTree(cfg *Config) string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render(fmt.Sprintf("Appforge Config (%s)", cfg.Version)))

	t.Child(cfg.Logging.ToTree().Tree())

	paths := fancy.SectionTree("Paths")
	paths.AddChild("Template: " + fancy.PathStyle.Render(cfg.Paths.TemplateDir))
	paths.AddChild("Workspaces: " + fancy.PathStyle.Render(cfg.Paths.WorkspaceRoot))
	paths.AddChild("Downloads: " + fancy.PathStyle.Render(cfg.Paths.DownloadsDir))
	if cfg.Paths.CredentialsDir != "" {
		paths.AddChild("Credentials: " + fancy.PathStyle.Render(cfg.Paths.CredentialsDir))
	}
	t.Child(paths.Tree())

	tmpl := fancy.SectionTree("Template")
	tmpl.AddChild("Package: " + cfg.Template.PackageName)
	tmpl.AddChild("Display name: " + cfg.Template.DisplayName)
	tmpl.AddChild("Version: " + cfg.Template.Version)
	tmpl.AddChild("Identifier: " + cfg.Template.Identifier)
	t.Child(tmpl.Tree())

	tc := fancy.SectionTree("Toolchain")
	tc.AddChild("Clean: " + strings.Join(cfg.Toolchain.Clean, " "))
	tc.AddChild("Dependencies: " + strings.Join(cfg.Toolchain.Dependencies, " "))
	tc.AddChild("Package: " + strings.Join(cfg.Toolchain.Package, " "))
	tc.AddChild("Artifact: " + fancy.PathStyle.Render(cfg.Toolchain.ArtifactPath))
	tc.AddChild(fmt.Sprintf("SDK pins: compileSdk=%d ndk=%s",
		cfg.Toolchain.CompileSdkVersion, cfg.Toolchain.NdkVersion))
	tc.AddChild("Step timeout: " + cfg.Toolchain.StepTimeout.String())
	t.Child(tc.Tree())

	pool := fancy.SectionTree("Pool")
	pool.AddChild(fmt.Sprintf("Workers: %d", cfg.Pool.MaxConcurrentJobs))
	pool.AddChild(fmt.Sprintf("Queue: %d", cfg.Pool.QueueSize))
	pool.AddChild(fmt.Sprintf("History: %d", cfg.Pool.HistorySize))
	t.Child(pool.Tree())

	httpTree := fancy.SectionTree("HTTP")
	httpTree.AddChild("Listen: " + cfg.HTTP.Listen)
	httpTree.AddChild("Drain timeout: " + cfg.HTTP.DrainTimeout.String())
	t.Child(httpTree.Tree())

	retention := fancy.SectionTree("Retention")
	if cfg.Retention.Disabled {
		retention.AddChild(fancy.InfoStyle.Render("disabled"))
	} else {
		retention.AddChild("Schedule: " + cfg.Retention.Schedule)
		retention.AddChild("Max age: " + cfg.Retention.MaxAge.String())
	}
	t.Child(retention.Tree())

	return t.String()
}
