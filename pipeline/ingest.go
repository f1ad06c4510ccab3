package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/video-summarizer/models"
)

// Ingest uploads the file and waits until the service reports it ready. Whenever the
// upload itself succeeded the handle is returned, even alongside an error, so the
// caller can delete it.
func (s *Service) Ingest(ctx context.Context, req Request) (*models.RemoteFile, error) {
	logger := logrus.WithFields(logrus.Fields{
		"job_id": req.JobID,
		"path":   req.Path,
	})
	logger.Info("Uploading file")

	file, err := s.remote.UploadFile(ctx, req.Path, req.DisplayName, req.MIMEType)
	if err != nil {
		return nil, errors.Wrap(err, "uploading file")
	}

	logger = logger.WithFields(logrus.Fields{
		"remote_name": file.Name,
		"uri":         file.URI,
	})
	logger.Info("Completed upload")

	file, err = s.waitForProcessing(ctx, file, logger)
	if err != nil {
		return file, err
	}

	if !file.IsActive() {
		logger.WithField("state", file.State).Error("File processing failed")
		return file, &IngestError{Name: file.Name, State: file.State}
	}

	ready, err := s.remote.GetFile(ctx, file.Name)
	if err != nil {
		return file, errors.Wrapf(err, "retrieving file %s", file.Name)
	}

	logger.WithField("display_name", ready.DisplayName).Info("File ready")
	return ready, nil
}

func (s *Service) waitForProcessing(ctx context.Context, file *models.RemoteFile, logger *logrus.Entry) (*models.RemoteFile, error) {
	deadline := time.Now().Add(s.config.IngestTimeout)

	for attempt := 1; file.IsProcessing(); attempt++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			logger.WithField("attempts", attempt-1).Error("File processing timed out")
			return file, errors.Wrapf(ErrIngestTimeout, "after %s", s.config.IngestTimeout)
		}

		wait := s.pollBackoff(attempt)
		if wait > remaining {
			wait = remaining
		}

		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait,
		}).Debug("File still processing")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return file, errors.Wrap(ctx.Err(), "waiting for file processing")
		}

		refreshed, err := s.remote.GetFile(ctx, file.Name)
		if err != nil {
			return file, errors.Wrapf(err, "polling file %s", file.Name)
		}
		file = refreshed
	}

	return file, nil
}

// pollBackoff returns the wait before poll number attempt (1-based): the base interval
// grown by the backoff factor each round, capped at the max interval.
func (s *Service) pollBackoff(attempt int) time.Duration {
	backoff := time.Duration(float64(s.config.PollInterval) * math.Pow(s.config.PollBackoffFactor, float64(attempt-1)))
	if s.config.PollMaxInterval > 0 && (backoff > s.config.PollMaxInterval || backoff <= 0) {
		backoff = s.config.PollMaxInterval
	}
	return backoff
}
