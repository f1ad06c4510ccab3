package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAppError(t *testing.T) {
	err := InvalidInput("test", nil, "test message")

	if err.Code != http.StatusBadRequest {
		t.Errorf("expected code %d, got %d", http.StatusBadRequest, err.Code)
	}

	if err.Message != "test message" {
		t.Errorf("expected message 'test message', got '%s'", err.Message)
	}

	if err.Error() != "test message" {
		t.Errorf("expected error string 'test message', got '%s'", err.Error())
	}
}

func TestErrorWithCause(t *testing.T) {
	cause := Internal("inner", nil, "cause error")
	err := InvalidInput("outer", cause, "test message")

	expected := "test message: cause error"
	if err.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, err.Error())
	}

	if got, ok := As(err); !ok || got != err {
		t.Errorf("As() did not return the outer error")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "not found error",
			err:      NotFound("op", nil, "not found"),
			expected: true,
		},
		{
			name:     "wrapped not found error",
			err:      fmt.Errorf("lookup: %w", NotFound("op", nil, "not found")),
			expected: true,
		},
		{
			name:     "other error",
			err:      InvalidInput("op", nil, "bad request"),
			expected: false,
		},
		{
			name:     "non-custom error",
			err:      fmt.Errorf("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.expected {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid input", InvalidInput("op", nil, "x"), http.StatusBadRequest},
		{"too large", TooLarge("op", nil, "x"), http.StatusRequestEntityTooLarge},
		{"internal", Internal("op", nil, "x"), http.StatusInternalServerError},
		{"rate limit", RateLimitExceeded("op"), http.StatusTooManyRequests},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.expected {
				t.Errorf("expected code %d, got %d", tt.expected, got)
			}
		})
	}
}
