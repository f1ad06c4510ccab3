package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestSaveSummary(t *testing.T) {
	putter := &fakePutter{}
	client := &SpacesClient{client: putter, bucket: "archive"}

	err := client.SaveSummary(context.Background(), SummaryRecord{
		ID:        "job-1",
		Filename:  "clip.mp4",
		Summary:   "<h1>Hello</h1>",
		ModelName: "models/gemini-1.5-flash",
	})
	if err != nil {
		t.Fatalf("SaveSummary() error = %v", err)
	}

	if aws.ToString(putter.input.Bucket) != "archive" {
		t.Errorf("expected bucket archive, got %s", aws.ToString(putter.input.Bucket))
	}
	if aws.ToString(putter.input.Key) != "summaries/job-1.json" {
		t.Errorf("unexpected key %s", aws.ToString(putter.input.Key))
	}

	var record SummaryRecord
	if err := json.Unmarshal(putter.body, &record); err != nil {
		t.Fatalf("archived body is not JSON: %v", err)
	}
	if record.Summary != "<h1>Hello</h1>" {
		t.Errorf("unexpected summary %q", record.Summary)
	}
	if record.Timestamp.IsZero() {
		t.Errorf("expected timestamp to be set")
	}
}

func TestSaveSummary_Error(t *testing.T) {
	client := &SpacesClient{client: &fakePutter{err: errors.New("denied")}, bucket: "archive"}

	if err := client.SaveSummary(context.Background(), SummaryRecord{ID: "x"}); err == nil {
		t.Fatal("expected error")
	}
}
