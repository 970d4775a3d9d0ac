package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
	"github.com/atlanticdynamic/appforge/internal/job"
	"github.com/atlanticdynamic/appforge/internal/job/finitestate"
	"github.com/atlanticdynamic/appforge/internal/server/runnables/buildpool"
)

// Route prefixes served by the API.
const (
	BuildsPath    = "/api/builds"
	GeneratePath  = "/api/generate"
	DownloadsPath = "/downloads/"
	MetricsPath   = "/metrics"
)

// Response is the body returned by the generate and submit endpoints.
type Response struct {
	Success     bool   `json:"success"`
	BuildID     string `json:"buildId,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	StatusURL   string `json:"statusUrl,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Error       string `json:"error,omitempty"`
}

// StatusResponse is the body returned by the status and cancel endpoints.
type StatusResponse struct {
	job.Status
	DownloadURL string `json:"downloadUrl,omitempty"`
}

func downloadURL(j *job.BuildJob) string {
	if p := j.DownloadPath(); p != "" {
		return DownloadsPath + p
	}
	return ""
}

func statusURL(j *job.BuildJob) string {
	return BuildsPath + "/" + j.ID.String()
}

func (r *Runner) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+GeneratePath, r.handleGenerate)
	mux.HandleFunc("POST "+BuildsPath, r.handleSubmit)
	mux.HandleFunc("GET "+BuildsPath, r.handleList)
	mux.HandleFunc("GET "+BuildsPath+"/{id}", r.handleStatus)
	mux.HandleFunc("DELETE "+BuildsPath+"/{id}", r.handleCancel)
	mux.Handle("GET "+DownloadsPath, http.StripPrefix(DownloadsPath, http.FileServer(http.Dir(r.downloadsDir))))
	if r.metricsHandler != nil {
		mux.Handle("GET "+MetricsPath, r.metricsHandler)
	}

	if r.instrument != nil {
		return r.instrument(mux)
	}
	return mux
}

// readConfig reads and validates the AppConfig body. A rejected body writes
// the error response and returns nil.
func (r *Runner) readConfig(w http.ResponseWriter, req *http.Request) []byte {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		r.writeJSON(w, status, Response{Stage: finitestate.StageValidating, Error: err.Error()})
		return nil
	}

	if _, err := appconfig.Validate(body); err != nil {
		r.logger.Info("Rejected invalid app config", "path", req.URL.Path, "error", err)
		r.writeJSON(w, http.StatusBadRequest, Response{Stage: finitestate.StageValidating, Error: err.Error()})
		return nil
	}
	return body
}

// handleGenerate runs one build and answers when it finishes.
func (r *Runner) handleGenerate(w http.ResponseWriter, req *http.Request) {
	body := r.readConfig(w, req)
	if body == nil {
		return
	}
	existing := r.existingJob(req)

	j, err := r.builds.SubmitAndWait(req.Context(), body, existing)
	if err != nil {
		if j != nil {
			r.logger.Warn("Client left before build finished, job cancelled", "id", j.ID, "error", err)
			return
		}
		r.writeSubmitError(w, err)
		return
	}

	if j.GetState() == finitestate.StageCompleted {
		r.writeJSON(w, http.StatusOK, Response{
			Success:     true,
			BuildID:     j.ID.String(),
			DownloadURL: downloadURL(j),
		})
		return
	}

	status := http.StatusInternalServerError
	resp := Response{BuildID: j.ID.String(), Stage: finitestate.StageFailed}
	if f := j.Failure(); f != nil {
		resp.Stage = f.Stage
		resp.Error = f.Err.Error()
		if f.Cancelled() {
			status = http.StatusConflict
		}
	}
	r.writeJSON(w, status, resp)
}

// handleSubmit queues one build and answers at once.
func (r *Runner) handleSubmit(w http.ResponseWriter, req *http.Request) {
	body := r.readConfig(w, req)
	if body == nil {
		return
	}

	j, err := r.builds.Submit(body, r.existingJob(req))
	if err != nil {
		r.writeSubmitError(w, err)
		return
	}

	w.Header().Set("Location", statusURL(j))
	r.writeJSON(w, http.StatusAccepted, Response{
		Success:   true,
		BuildID:   j.ID.String(),
		StatusURL: statusURL(j),
		Stage:     j.GetState(),
	})
}

func (r *Runner) handleList(w http.ResponseWriter, _ *http.Request) {
	jobs := r.builds.List()
	out := make([]StatusResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, StatusResponse{Status: j.Status(), DownloadURL: downloadURL(j)})
	}
	r.writeJSON(w, http.StatusOK, out)
}

func (r *Runner) handleStatus(w http.ResponseWriter, req *http.Request) {
	j, err := r.builds.Get(req.PathValue("id"))
	if err != nil {
		r.writeJSON(w, http.StatusNotFound, Response{Error: err.Error()})
		return
	}
	r.writeJSON(w, http.StatusOK, StatusResponse{Status: j.Status(), DownloadURL: downloadURL(j)})
}

func (r *Runner) handleCancel(w http.ResponseWriter, req *http.Request) {
	j, err := r.builds.Cancel(req.PathValue("id"))
	switch {
	case errors.Is(err, buildpool.ErrJobNotFound):
		r.writeJSON(w, http.StatusNotFound, Response{Error: err.Error()})
	case errors.Is(err, buildpool.ErrJobFinished):
		r.writeJSON(w, http.StatusConflict, Response{BuildID: j.ID.String(), Stage: j.GetState(), Error: err.Error()})
	case err != nil:
		r.writeJSON(w, http.StatusInternalServerError, Response{Error: err.Error()})
	default:
		r.writeJSON(w, http.StatusAccepted, StatusResponse{Status: j.Status()})
	}
}

func (r *Runner) existingJob(req *http.Request) string {
	existing := req.URL.Query().Get("existingJob")
	if existing != "" {
		r.logger.Info("Build references an earlier job", "existingJob", existing)
	}
	return existing
}

func (r *Runner) writeSubmitError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, buildpool.ErrQueueFull) || errors.Is(err, buildpool.ErrNotRunning) {
		status = http.StatusServiceUnavailable
	}
	r.writeJSON(w, status, Response{Stage: finitestate.StageQueued, Error: err.Error()})
}

func (r *Runner) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		r.logger.Warn("Failed to write response", "error", err)
	}
}
