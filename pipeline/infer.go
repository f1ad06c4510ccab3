package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/video-summarizer/models"
)

// Infer makes the single inference request, bounded by the inference timeout.
func (s *Service) Infer(ctx context.Context, file *models.RemoteFile, prompt string) (string, error) {
	logger := logrus.WithFields(logrus.Fields{
		"remote_name": file.Name,
		"model":       s.config.ModelName,
	})
	logger.Info("Making inference request")

	ctx, cancel := context.WithTimeout(ctx, s.config.InferenceTimeout)
	defer cancel()

	text, err := s.remote.GenerateContent(ctx, file, prompt)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.Wrapf(err, "inference timed out after %s", s.config.InferenceTimeout)
		}
		return "", errors.Wrap(err, "inference failed")
	}

	logger.WithField("response_length", len(text)).Debug("Inference response received")
	return text, nil
}

// Cleanup deletes the remote file. Failures are logged and otherwise ignored. The
// delete runs on a context detached from ctx's cancellation so an aborted request
// still releases the remote copy.
func (s *Service) Cleanup(ctx context.Context, file *models.RemoteFile) {
	logger := logrus.WithFields(logrus.Fields{
		"remote_name": file.Name,
		"uri":         file.URI,
	})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.CleanupTimeout)
	defer cancel()

	logger.Info("Deleting file")
	if err := s.remote.DeleteFile(ctx, file.Name); err != nil {
		logger.WithError(err).Warn("Failed to delete remote file")
		return
	}
	logger.Info("Deleted file")
}
