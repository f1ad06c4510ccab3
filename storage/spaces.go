package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nijaru/video-summarizer/config"
)

// SummaryRecord is the archived form of a completed job.
type SummaryRecord struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Prompt    string    `json:"prompt"`
	Summary   string    `json:"summary"`
	ModelName string    `json:"model_name"`
	Timestamp time.Time `json:"timestamp"`
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SpacesClient archives summaries to an S3-compatible bucket.
type SpacesClient struct {
	client objectPutter
	bucket string
}

func NewSpacesClient(ctx context.Context, cfg config.SpacesConfig) (*SpacesClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &SpacesClient{client: client, bucket: cfg.Bucket}, nil
}

func summaryKey(id string) string {
	return fmt.Sprintf("summaries/%s.json", id)
}

func (s *SpacesClient) SaveSummary(ctx context.Context, record SummaryRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(summaryKey(record.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save to Spaces: %w", err)
	}

	return nil
}
