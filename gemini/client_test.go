package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/nijaru/video-summarizer/models"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("# Hello"), genai.Text("\nworld")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}

	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("responseText() error = %v", err)
	}
	if got != "# Hello\nworld" {
		t.Errorf("expected first candidate text, got %q", got)
	}
}

func TestResponseText_Empty(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"no content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"non-text parts", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.FileData{URI: "u"}}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := responseText(tt.resp); err != ErrEmptyResponse {
				t.Errorf("expected ErrEmptyResponse, got %v", err)
			}
		})
	}
}

func TestToRemoteFile(t *testing.T) {
	tests := []struct {
		state    genai.FileState
		expected models.FileState
	}{
		{genai.FileStateProcessing, models.FileStateProcessing},
		{genai.FileStateActive, models.FileStateActive},
		{genai.FileStateFailed, models.FileStateFailed},
		{genai.FileStateUnspecified, models.FileStateUnspecified},
	}

	for _, tt := range tests {
		f := toRemoteFile(&genai.File{
			Name:        "files/abc",
			URI:         "https://example.com/files/abc",
			DisplayName: "clip.mp4",
			MIMEType:    "video/mp4",
			State:       tt.state,
		})
		if f.State != tt.expected {
			t.Errorf("state %v mapped to %s, want %s", tt.state, f.State, tt.expected)
		}
		if f.Name != "files/abc" || f.MIMEType != "video/mp4" {
			t.Errorf("unexpected handle: %+v", f)
		}
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "", "models/gemini-1.5-flash"); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
