package utils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nijaru/video-summarizer/errors"
)

func TestHandleError(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleError(rr, "Test error", http.StatusBadRequest)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"error":"Test error"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "app error",
			err:        errors.InvalidInput("op", nil, "No file part"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"No file part"}`,
		},
		{
			name:       "wrapped app error",
			err:        fmt.Errorf("outer: %w", errors.NotFound("op", nil, "Summary not found")),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Summary not found"}`,
		},
		{
			name:       "plain error hides cause",
			err:        fmt.Errorf("database exploded"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondWithError(rr, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestRespondWithJSON_KeepsHTML(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusOK, map[string]string{"summary": "<h1>Hello</h1>"})

	expected := `{"summary":"<h1>Hello</h1>"}`
	if got := strings.TrimSpace(rr.Body.String()); got != expected {
		t.Errorf("body = %s, want %s", got, expected)
	}
}
