package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"github.com/nijaru/video-summarizer/errors"
	"github.com/nijaru/video-summarizer/utils"
)

// Chain wraps handler so the first middleware is the outermost.
func Chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			handler = middlewares[i](handler)
		}
	}
	return handler
}

// RateLimiter is a process-wide token bucket shared by every request.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows limit requests per interval with a burst of limit.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval/time.Duration(limit)), limit),
	}
}

func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow() {
			GetLogger(r.Context()).Warn("Rate limit exceeded")
			utils.RespondWithError(w, errors.RateLimitExceeded("RateLimiter"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Recovery turns a panic in next into a 500 JSON response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := errors.Internal("Recovery", fmt.Errorf("%v", rec), "Internal server error")
				GetLogger(r.Context()).WithError(err).
					WithField("stack", string(debug.Stack())).
					Error("Panic recovered")
				utils.RespondWithError(w, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
