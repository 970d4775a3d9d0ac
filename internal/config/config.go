// Package config holds the service configuration for appforge: where the
// template project lives, where job workspaces and published artifacts go,
// which toolchain commands to run, and how many builds may run at once.
package config

import (
	"time"

	"github.com/atlanticdynamic/appforge/internal/config/logs"
)

// VersionLatest is the only supported config file version.
const VersionLatest = "v1"

// Defaults describing the stock flutter_basic template project.
const (
	DefaultTemplatePackageName = "base_template"
	DefaultTemplateDisplayName = "Base Template"
	DefaultTemplateVersion     = "1.0.0+1"
	DefaultTemplateIdentifier  = "com.example.basetemplate"
)

// Toolchain defaults.
const (
	DefaultArtifactPath      = "build/app/outputs/flutter-apk/app-release.apk"
	DefaultCompileSdkVersion = 35
	DefaultNdkVersion        = "25.1.8937393"
	DefaultStepTimeout       = Duration(20 * time.Minute)
)

// Path defaults, relative to the working directory of the process.
const (
	DefaultTemplateDir   = "templates/flutter_basic"
	DefaultWorkspaceRoot = "builds"
	DefaultDownloadsDir  = "builds/downloads"
)

// Pool, HTTP and retention defaults.
const (
	DefaultMaxConcurrentJobs = 2
	DefaultQueueSize         = 16
	DefaultHistorySize       = 100
	DefaultListenAddr        = "localhost:3001"
	DefaultDrainTimeout      = Duration(30 * time.Second)
	DefaultRetentionSchedule = "@hourly"
	DefaultRetentionMaxAge   = Duration(72 * time.Hour)
)

var (
	DefaultCleanCommand        = []string{"flutter", "clean"}
	DefaultDependenciesCommand = []string{"flutter", "pub", "get"}
	DefaultPackageCommand      = []string{"flutter", "build", "apk", "--release"}
)

// Config is the root of the service configuration
type Config struct {
	Version   string      `toml:"version"`
	Logging   logs.Config `toml:"logging"`
	Paths     Paths       `toml:"paths"`
	Template  Template    `toml:"template"`
	Toolchain Toolchain   `toml:"toolchain"`
	Pool      Pool        `toml:"pool"`
	HTTP      HTTP        `toml:"http"`
	Retention Retention   `toml:"retention"`
}

// Paths locates the template project and the directories the pipeline writes to.
type Paths struct {
	TemplateDir    string `toml:"template_dir"`
	WorkspaceRoot  string `toml:"workspace_root"`
	DownloadsDir   string `toml:"downloads_dir"`
	CredentialsDir string `toml:"credentials_dir"`
}

// Template records the identity values baked into the template project, used
// as rewrite anchors.
type Template struct {
	PackageName string `toml:"package_name"`
	DisplayName string `toml:"display_name"`
	Version     string `toml:"version"`
	Identifier  string `toml:"identifier"`
}

// Toolchain describes the external build commands and the version pins
// written into the native build descriptor.
type Toolchain struct {
	Clean             []string `toml:"clean"`
	Dependencies      []string `toml:"dependencies"`
	Package           []string `toml:"package"`
	Env               []string `toml:"env"`
	ArtifactPath      string   `toml:"artifact_path"`
	CompileSdkVersion int      `toml:"compile_sdk_version"`
	NdkVersion        string   `toml:"ndk_version"`
	StepTimeout       Duration `toml:"step_timeout"`
}

// Pool bounds build concurrency.
type Pool struct {
	MaxConcurrentJobs int `toml:"max_concurrent_jobs"`
	QueueSize         int `toml:"queue_size"`
	HistorySize       int `toml:"history_size"`
}

// HTTP configures the inbound API listener.
type HTTP struct {
	Listen       string   `toml:"listen"`
	DrainTimeout Duration `toml:"drain_timeout"`
}

// Retention configures the workspace/artifact sweeper.
type Retention struct {
	Disabled bool     `toml:"disabled"`
	Schedule string   `toml:"schedule"`
	MaxAge   Duration `toml:"max_age"`
}

// NewDefault returns a Config with every default applied.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero-valued field with its default.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = VersionLatest
	}
	if c.Logging.Level == logs.LevelUnspecified {
		c.Logging.Level = logs.LevelInfo
	}
	if c.Logging.Format == logs.FormatUnspecified {
		c.Logging.Format = logs.FormatText
	}

	setDefault(&c.Paths.TemplateDir, DefaultTemplateDir)
	setDefault(&c.Paths.WorkspaceRoot, DefaultWorkspaceRoot)
	setDefault(&c.Paths.DownloadsDir, DefaultDownloadsDir)

	setDefault(&c.Template.PackageName, DefaultTemplatePackageName)
	setDefault(&c.Template.DisplayName, DefaultTemplateDisplayName)
	setDefault(&c.Template.Version, DefaultTemplateVersion)
	setDefault(&c.Template.Identifier, DefaultTemplateIdentifier)

	if len(c.Toolchain.Clean) == 0 {
		c.Toolchain.Clean = DefaultCleanCommand
	}
	if len(c.Toolchain.Dependencies) == 0 {
		c.Toolchain.Dependencies = DefaultDependenciesCommand
	}
	if len(c.Toolchain.Package) == 0 {
		c.Toolchain.Package = DefaultPackageCommand
	}
	setDefault(&c.Toolchain.ArtifactPath, DefaultArtifactPath)
	setDefault(&c.Toolchain.NdkVersion, DefaultNdkVersion)
	if c.Toolchain.CompileSdkVersion == 0 {
		c.Toolchain.CompileSdkVersion = DefaultCompileSdkVersion
	}
	if c.Toolchain.StepTimeout == 0 {
		c.Toolchain.StepTimeout = DefaultStepTimeout
	}

	if c.Pool.MaxConcurrentJobs == 0 {
		c.Pool.MaxConcurrentJobs = DefaultMaxConcurrentJobs
	}
	if c.Pool.QueueSize == 0 {
		c.Pool.QueueSize = DefaultQueueSize
	}
	if c.Pool.HistorySize == 0 {
		c.Pool.HistorySize = DefaultHistorySize
	}

	setDefault(&c.HTTP.Listen, DefaultListenAddr)
	if c.HTTP.DrainTimeout == 0 {
		c.HTTP.DrainTimeout = DefaultDrainTimeout
	}

	setDefault(&c.Retention.Schedule, DefaultRetentionSchedule)
	if c.Retention.MaxAge == 0 {
		c.Retention.MaxAge = DefaultRetentionMaxAge
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
