// Package gemini adapts the Gemini SDK to the file and inference operations the
// pipeline needs.
package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/nijaru/video-summarizer/models"
)

var ErrEmptyResponse = errors.New("model returned no text")

type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient builds a client authenticated with apiKey. The key is held only by the
// SDK client created here.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "gemini: creating client")
	}

	return &Client{client: client, modelName: modelName}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) ModelName() string {
	return c.modelName
}

func (c *Client) UploadFile(ctx context.Context, path, displayName, mimeType string) (*models.RemoteFile, error) {
	f, err := c.client.UploadFileFromPath(ctx, path, &genai.UploadFileOptions{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "gemini: uploading %s", path)
	}
	return toRemoteFile(f), nil
}

func (c *Client) GetFile(ctx context.Context, name string) (*models.RemoteFile, error) {
	f, err := c.client.GetFile(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "gemini: getting file %s", name)
	}
	return toRemoteFile(f), nil
}

func (c *Client) DeleteFile(ctx context.Context, name string) error {
	if err := c.client.DeleteFile(ctx, name); err != nil {
		return errors.Wrapf(err, "gemini: deleting file %s", name)
	}
	return nil
}

// GenerateContent sends the file and prompt to the configured model and returns the
// concatenated text of the first candidate. An empty prompt sends the file alone.
func (c *Client) GenerateContent(ctx context.Context, file *models.RemoteFile, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.modelName)

	parts := []genai.Part{genai.FileData{URI: file.URI, MIMEType: file.MIMEType}}
	if prompt != "" {
		parts = append(parts, genai.Text(prompt))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", errors.Wrap(err, "gemini: generating content")
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil {
			logrus.WithField("block_reason", resp.PromptFeedback.BlockReason).Warn("Prompt blocked")
		}
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func toRemoteFile(f *genai.File) *models.RemoteFile {
	return &models.RemoteFile{
		Name:        f.Name,
		URI:         f.URI,
		DisplayName: f.DisplayName,
		MIMEType:    f.MIMEType,
		State:       toFileState(f.State),
	}
}

func toFileState(s genai.FileState) models.FileState {
	switch s {
	case genai.FileStateProcessing:
		return models.FileStateProcessing
	case genai.FileStateActive:
		return models.FileStateActive
	case genai.FileStateFailed:
		return models.FileStateFailed
	default:
		return models.FileStateUnspecified
	}
}
