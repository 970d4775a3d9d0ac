package job

import (
	"fmt"
	"time"

	"github.com/atlanticdynamic/appforge/internal/fancy"
	"github.com/atlanticdynamic/appforge/internal/job/finitestate"
)

// Status is a point-in-time snapshot of a BuildJob.
type Status struct {
	ID            string     `json:"buildId"`
	Stage         string     `json:"stage"`
	AppName       string     `json:"appName,omitempty"`
	Identifier    string     `json:"identifier,omitempty"`
	WorkspacePath string     `json:"workspacePath,omitempty"`
	ArtifactPath  string     `json:"artifactPath,omitempty"`
	DownloadPath  string     `json:"-"`
	FailedStage   string     `json:"failedStage,omitempty"`
	Error         string     `json:"error,omitempty"`
	Cancelled     bool       `json:"cancelled,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	Duration      string     `json:"duration"`
}

// Status returns a snapshot of the job.
func (j *BuildJob) Status() Status {
	s := Status{
		ID:            j.ID.String(),
		Stage:         j.GetState(),
		WorkspacePath: j.WorkspacePath(),
		ArtifactPath:  j.ArtifactPath(),
		DownloadPath:  j.DownloadPath(),
		CreatedAt:     j.CreatedAt,
		Duration:      j.GetTotalDuration().Round(time.Millisecond).String(),
	}
	if app := j.App(); app != nil {
		s.AppName = app.AppName
		s.Identifier = app.Identifier
	}
	if f := j.Failure(); f != nil {
		s.FailedStage = f.Stage
		s.Error = f.Err.Error()
		s.Cancelled = f.Cancelled()
	}
	if finished := j.FinishedAt(); !finished.IsZero() {
		s.FinishedAt = &finished
	}
	return s
}

// String renders the job as a tree
func (j *BuildJob) String() string {
	s := j.Status()
	t := fancy.JobTree(s.ID)

	stage := fancy.StageStyle.Render(s.Stage)
	switch {
	case s.Stage == finitestate.StageCompleted:
		stage = fancy.SuccessStyle.Render(s.Stage)
	case s.FailedStage != "":
		stage = fancy.ErrorStyle.Render(fmt.Sprintf("%s (at %s)", s.Stage, s.FailedStage))
	}
	t.AddChild("Stage: " + stage)

	if s.AppName != "" {
		t.AddChild(fmt.Sprintf("App: %s (%s)", s.AppName, s.Identifier))
	}
	if s.WorkspacePath != "" {
		t.AddChild("Workspace: " + fancy.PathStyle.Render(s.WorkspacePath))
	}
	if s.ArtifactPath != "" {
		t.AddChild("Artifact: " + fancy.PathStyle.Render(s.ArtifactPath))
	}
	if s.Error != "" {
		t.AddChild("Error: " + fancy.TruncateString(s.Error, 120))
	}
	t.AddChild("Duration: " + s.Duration)
	return t.String()
}
