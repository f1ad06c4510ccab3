package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/video-summarizer/cache"
	"github.com/nijaru/video-summarizer/errors"
	"github.com/nijaru/video-summarizer/middleware"
	"github.com/nijaru/video-summarizer/models"
	"github.com/nijaru/video-summarizer/pipeline"
	"github.com/nijaru/video-summarizer/storage"
	"github.com/nijaru/video-summarizer/utils"
	"github.com/nijaru/video-summarizer/validation"
)

const (
	fileField   = "file"
	promptField = "customInput"

	maxMemory         = 32 << 20
	multipartOverhead = 1 << 20
	archiveTimeout    = 30 * time.Second
	ledgerTimeout     = 5 * time.Second
	responseSlack     = time.Minute
)

// UploadHandler accepts a video and a free-text prompt and responds with the
// rendered summary.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	const op = "UploadHandler"
	logger := middleware.GetLogger(r.Context())

	if r.Method != http.MethodPost {
		utils.HandleError(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	rc := http.NewResponseController(w)
	if h.cfg.UploadReadTimeout > 0 {
		if err := rc.SetReadDeadline(time.Now().Add(h.cfg.UploadReadTimeout)); err != nil {
			logger.WithError(err).Debug("Read deadline not supported")
		}
	}

	if h.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		utils.RespondWithError(w, parseFormError(op, err, logger))
		return
	}
	defer r.MultipartForm.RemoveAll()

	// The body is in; give the pipeline its full budget to produce a response.
	if budget := h.cfg.PipelineTimeout(); budget > 0 {
		if err := rc.SetWriteDeadline(time.Now().Add(budget + responseSlack)); err != nil {
			logger.WithError(err).Debug("Write deadline not supported")
		}
	}

	file, header, err := r.FormFile(fileField)
	if err != nil {
		// A part named "file" with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value[fileField]; ok {
			utils.RespondWithError(w, errors.InvalidInput(op, err, validation.MsgNoSelectedFile))
			return
		}
		utils.RespondWithError(w, errors.InvalidInput(op, err, validation.MsgNoFilePart))
		return
	}
	defer file.Close()

	if err := validation.ValidateUpload(header, h.cfg.MaxUploadBytes); err != nil {
		logger.WithError(err).WithField("filename", header.Filename).Warn("Upload rejected")
		utils.RespondWithError(w, err)
		return
	}

	prompt := r.FormValue(promptField)

	stored, err := h.uploads.Save(file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		logger.WithError(err).Error("Failed to store upload")
		utils.RespondWithError(w, errors.Internal(op, err, msgGenerateFailed))
		return
	}

	logger = logger.WithFields(logrus.Fields{
		"job_id":   stored.Key,
		"filename": stored.Filename,
		"size":     stored.Size,
	})
	logger.Info("File uploaded")

	ctx := r.Context()
	h.recordJob(ctx, logger, &models.Job{
		ID:         stored.Key,
		Filename:   stored.Filename,
		StoredPath: stored.Path,
		Prompt:     prompt,
		ModelName:  h.cfg.ModelName,
	})

	cacheKey := cache.Key(stored.Digest, prompt, h.cfg.ModelName)
	if summary, ok := h.cache.Get(ctx, cacheKey); ok {
		h.finishJob(ctx, logger, stored, prompt, &pipeline.Result{HTML: summary, ModelName: h.cfg.ModelName})
		utils.RespondWithJSON(w, http.StatusOK, models.SummaryResponse{Summary: summary, ID: stored.Key})
		return
	}

	result, err := h.summarizer.Process(ctx, pipeline.Request{
		JobID:       stored.Key,
		Path:        stored.Path,
		DisplayName: stored.Filename,
		MIMEType:    stored.MIMEType,
		Prompt:      prompt,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to generate summary")
		h.failJob(ctx, logger, stored.Key, err)
		utils.RespondWithError(w, errors.Internal(op, err, msgGenerateFailed))
		return
	}

	h.cache.Set(ctx, cacheKey, result.HTML)
	h.finishJob(ctx, logger, stored, prompt, result)

	if trace := middleware.GetTraceInfo(ctx); trace != nil {
		logger = logger.WithField("elapsed", time.Since(trace.StartTime))
	}
	logger.Info("Summary sent")

	utils.RespondWithJSON(w, http.StatusOK, models.SummaryResponse{Summary: result.HTML, ID: stored.Key})
}

// parseFormError maps a multipart parse failure to the client response. Only a body that
// is not multipart at all counts as a missing file part.
func parseFormError(op string, err error, logger *logrus.Entry) error {
	var maxErr *http.MaxBytesError
	switch {
	case stderrors.As(err, &maxErr):
		return errors.TooLarge(op, err, validation.MsgFileTooLarge)
	case stderrors.Is(err, http.ErrNotMultipart), stderrors.Is(err, http.ErrMissingBoundary):
		logger.WithError(err).Warn("Request is not a multipart form")
		return errors.InvalidInput(op, err, validation.MsgNoFilePart)
	default:
		logger.WithError(err).Error("Failed to read upload body")
		return errors.Internal(op, err, msgGenerateFailed)
	}
}

// ledgerContext detaches ledger writes from the request so a client that hangs up
// still leaves the job in a final state.
func ledgerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
}

func (h *Handler) failJob(ctx context.Context, logger *logrus.Entry, id string, cause error) {
	ctx, cancel := ledgerContext(ctx)
	defer cancel()

	if err := h.jobs.FailJob(ctx, id, cause.Error()); err != nil {
		logger.WithError(err).Warn("Failed to record job failure")
	}
}

func (h *Handler) recordJob(ctx context.Context, logger *logrus.Entry, job *models.Job) {
	if err := h.jobs.CreateJob(ctx, job); err != nil {
		logger.WithError(err).Warn("Failed to record job")
	}
}

func (h *Handler) finishJob(ctx context.Context, logger *logrus.Entry, stored *storage.StoredFile, prompt string, result *pipeline.Result) {
	ledgerCtx, cancel := ledgerContext(ctx)
	defer cancel()

	if result.RemoteName != "" {
		if err := h.jobs.SetRemoteName(ledgerCtx, stored.Key, result.RemoteName); err != nil {
			logger.WithError(err).Warn("Failed to record remote file name")
		}
	}
	if err := h.jobs.CompleteJob(ledgerCtx, stored.Key, result.HTML, result.ModelName); err != nil {
		logger.WithError(err).Warn("Failed to record job completion")
	}

	if h.archive == nil {
		return
	}

	archiveCtx, cancelArchive := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancelArchive()

	err := h.archive.SaveSummary(archiveCtx, storage.SummaryRecord{
		ID:        stored.Key,
		Filename:  stored.Filename,
		Prompt:    prompt,
		Summary:   result.HTML,
		ModelName: result.ModelName,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to archive summary")
	}
}
