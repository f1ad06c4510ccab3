package handlers

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/nijaru/video-summarizer/cache"
	"github.com/nijaru/video-summarizer/config"
	"github.com/nijaru/video-summarizer/errors"
	"github.com/nijaru/video-summarizer/middleware"
	"github.com/nijaru/video-summarizer/models"
	"github.com/nijaru/video-summarizer/pipeline"
	"github.com/nijaru/video-summarizer/storage"
	"github.com/nijaru/video-summarizer/utils"
)

const (
	msgMethodNotAllowed = "Method not allowed"
	msgGenerateFailed   = "Failed to generate response. Please try again."
	msgSummaryNotFound  = "Summary not found"
)

type Summarizer interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	SetRemoteName(ctx context.Context, id, remoteName string) error
	CompleteJob(ctx context.Context, id, summary, modelName string) error
	FailJob(ctx context.Context, id, message string) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	Ping(ctx context.Context) error
}

type Archiver interface {
	SaveSummary(ctx context.Context, record storage.SummaryRecord) error
}

type Handler struct {
	cfg        *config.Config
	uploads    *storage.UploadStore
	summarizer Summarizer
	jobs       JobStore
	cache      *cache.SummaryCache
	archive    Archiver
}

// New wires the HTTP handlers. cache and archive may be nil when those features are
// not configured.
func New(cfg *config.Config, uploads *storage.UploadStore, summarizer Summarizer, jobs JobStore, summaryCache *cache.SummaryCache, archive Archiver) *Handler {
	return &Handler{
		cfg:        cfg,
		uploads:    uploads,
		summarizer: summarizer,
		jobs:       jobs,
		cache:      summaryCache,
		archive:    archive,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/{$}", h.IndexHandler)
	mux.HandleFunc("/upload", h.UploadHandler)
	mux.HandleFunc("/summaries/{id}", h.SummaryHandler)
	mux.HandleFunc("/health", h.HealthCheckHandler)
}

func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		utils.HandleError(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.cfg.StaticDir, "index.html"))
}

func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.HandleError(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	logger := middleware.GetLogger(r.Context())
	id := r.PathValue("id")

	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		if !errors.IsNotFound(err) {
			logger.WithError(err).WithField("job_id", id).Error("Failed to load job")
			err = errors.NotFound("SummaryHandler", err, msgSummaryNotFound)
		}
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.NewJobResponse(job))
}
