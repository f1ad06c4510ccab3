package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	TraceKey  contextKey = "trace"
	LoggerKey contextKey = "logger"
)

const RequestIDHeader = "X-Request-ID"

type TraceInfo struct {
	RequestID string
	StartTime time.Time
	UserAgent string
	RemoteIP  string
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	responseSize int64
	wroteHeader  bool
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if !lrw.wroteHeader {
		lrw.WriteHeader(http.StatusOK)
	}
	size, err := lrw.ResponseWriter.Write(b)
	lrw.responseSize += int64(size)
	return size, err
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	if lrw.wroteHeader {
		return
	}
	lrw.statusCode = code
	lrw.wroteHeader = true
	lrw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the connection for per-request deadlines.
func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware assigns a request id, stores a request-scoped logger in the
// context and logs the outcome of every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		traceInfo := &TraceInfo{
			RequestID: requestID,
			StartTime: time.Now(),
			UserAgent: r.UserAgent(),
			RemoteIP:  r.RemoteAddr,
		}

		w.Header().Set(RequestIDHeader, traceInfo.RequestID)

		logger := logrus.WithFields(logrus.Fields{
			"request_id": traceInfo.RequestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote_ip":  traceInfo.RemoteIP,
			"user_agent": traceInfo.UserAgent,
		})

		ctx := context.WithValue(r.Context(), TraceKey, traceInfo)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		r = r.WithContext(ctx)

		logger.Info("Request started")

		lrw := newLoggingResponseWriter(w)
		next.ServeHTTP(lrw, r)

		logger = logger.WithFields(logrus.Fields{
			"status":   lrw.statusCode,
			"duration": time.Since(traceInfo.StartTime),
			"size":     lrw.responseSize,
		})

		switch {
		case lrw.statusCode >= 500:
			logger.Error("Request completed with server error")
		case lrw.statusCode >= 400:
			logger.Warn("Request completed with client error")
		default:
			logger.Info("Request completed successfully")
		}

		if err := ctx.Err(); err != nil {
			logger.WithError(err).Warn("Request context ended before completion")
		}
	})
}

func GetTraceInfo(ctx context.Context) *TraceInfo {
	if trace, ok := ctx.Value(TraceKey).(*TraceInfo); ok {
		return trace
	}
	return nil
}

func GetLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(LoggerKey).(*logrus.Entry); ok {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
