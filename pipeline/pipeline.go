// Package pipeline runs an uploaded video through the remote inference service:
// upload and wait until ready, generate, delete the remote copy, render to HTML.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/video-summarizer/config"
	"github.com/nijaru/video-summarizer/models"
	"github.com/nijaru/video-summarizer/render"
)

var (
	ErrIngestFailed  = errors.New("file processing failed")
	ErrIngestTimeout = errors.New("timed out waiting for file processing")
)

// IngestError reports a file that reached a terminal state other than ACTIVE.
type IngestError struct {
	Name  string
	State models.FileState
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("file processing failed: %s", e.State)
}

func (e *IngestError) Is(target error) bool {
	return target == ErrIngestFailed
}

// Remote is the subset of the inference service the pipeline calls.
type Remote interface {
	UploadFile(ctx context.Context, path, displayName, mimeType string) (*models.RemoteFile, error)
	GetFile(ctx context.Context, name string) (*models.RemoteFile, error)
	GenerateContent(ctx context.Context, file *models.RemoteFile, prompt string) (string, error)
	DeleteFile(ctx context.Context, name string) error
}

type Config struct {
	ModelName         string
	PollInterval      time.Duration
	PollMaxInterval   time.Duration
	PollBackoffFactor float64
	IngestTimeout     time.Duration
	InferenceTimeout  time.Duration
	CleanupOnFailure  bool
	CleanupTimeout    time.Duration
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ModelName:         cfg.ModelName,
		PollInterval:      cfg.PollInterval,
		PollMaxInterval:   cfg.PollMaxInterval,
		PollBackoffFactor: cfg.PollBackoffFactor,
		IngestTimeout:     cfg.IngestTimeout,
		InferenceTimeout:  cfg.InferenceTimeout,
		CleanupOnFailure:  cfg.CleanupOnFailure,
		CleanupTimeout:    cfg.CleanupTimeout,
	}
}

type Request struct {
	JobID       string
	Path        string
	DisplayName string
	MIMEType    string
	Prompt      string
}

type Result struct {
	RemoteName string
	Markdown   string
	HTML       string
	ModelName  string
}

type Service struct {
	remote Remote
	config Config
}

func NewService(remote Remote, cfg Config) *Service {
	return &Service{remote: remote, config: cfg}
}

// Process runs the full sequence for one request. The remote copy is deleted after
// a successful inference, and also after a failure when CleanupOnFailure is set.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	logger := logrus.WithField("job_id", req.JobID)

	file, err := s.Ingest(ctx, req)
	if err != nil {
		if file != nil && s.config.CleanupOnFailure {
			s.Cleanup(ctx, file)
		}
		return nil, err
	}

	text, err := s.Infer(ctx, file, req.Prompt)
	if err != nil {
		if s.config.CleanupOnFailure {
			s.Cleanup(ctx, file)
		}
		return nil, err
	}

	s.Cleanup(ctx, file)

	html, err := render.Markdown(text)
	if err != nil {
		return nil, err
	}

	logger.WithField("summary_length", len(text)).Info("Summary generated")

	return &Result{
		RemoteName: file.Name,
		Markdown:   text,
		HTML:       html,
		ModelName:  s.config.ModelName,
	}, nil
}
