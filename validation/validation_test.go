package validation

import (
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/nijaru/video-summarizer/errors"
)

func TestValidateFilename(t *testing.T) {
	if err := ValidateFilename("clip.mp4"); err != nil {
		t.Errorf("ValidateFilename(clip.mp4) error = %v", err)
	}

	err := ValidateFilename("")
	appErr, ok := errors.As(err)
	if !ok || appErr.Message != MsgNoSelectedFile || appErr.Code != http.StatusBadRequest {
		t.Errorf("ValidateFilename(\"\") = %v, want 400 %q", err, MsgNoSelectedFile)
	}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		size       int64
		maxBytes   int64
		wantStatus int
		wantMsg    string
	}{
		{"valid", "clip.mp4", 100, 1000, 0, ""},
		{"uppercase extension", "CLIP.MOV", 100, 1000, 0, ""},
		{"no limit", "clip.webm", 1 << 40, 0, 0, ""},
		{"empty filename", "", 100, 1000, http.StatusBadRequest, MsgNoSelectedFile},
		{"empty file", "clip.mp4", 0, 1000, http.StatusBadRequest, MsgEmptyFile},
		{"too large", "clip.mp4", 1001, 1000, http.StatusRequestEntityTooLarge, MsgFileTooLarge},
		{"not a video", "notes.txt", 100, 1000, http.StatusBadRequest, MsgUnsupportedType},
		{"no extension", "clip", 100, 1000, http.StatusBadRequest, MsgUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(&multipart.FileHeader{Filename: tt.filename, Size: tt.size}, tt.maxBytes)

			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("ValidateUpload() error = %v, want nil", err)
				}
				return
			}

			appErr, ok := errors.As(err)
			if !ok {
				t.Fatalf("ValidateUpload() error = %v, want *AppError", err)
			}
			if appErr.Code != tt.wantStatus || appErr.Message != tt.wantMsg {
				t.Errorf("ValidateUpload() = %d %q, want %d %q", appErr.Code, appErr.Message, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}
