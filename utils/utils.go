package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/video-summarizer/errors"
)

const internalErrorMessage = "Internal server error"

// RespondWithJSON writes payload as compact JSON. HTML in string fields is left
// unescaped since summaries are HTML fragments.
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

// RespondWithError writes {"error": message}. An *AppError supplies its own status and
// message; any other error becomes a 500 without exposing the cause.
func RespondWithError(w http.ResponseWriter, err error) {
	message := internalErrorMessage
	if appErr, ok := errors.As(err); ok {
		message = appErr.Message
	}
	HandleError(w, message, errors.StatusCode(err))
}

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	RespondWithJSON(w, statusCode, map[string]string{"error": message})
}
