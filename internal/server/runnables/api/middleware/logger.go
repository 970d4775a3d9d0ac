// Package middleware holds the go-supervisor middleware wrapped around the
// API route: request logging and response headers.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

// RequestLogger logs one record per HTTP request. Failed requests are
// logged at warn or error level depending on the status class.
type RequestLogger struct {
	logger       *slog.Logger
	excludePaths []string
}

// NewRequestLogger creates a request logger. Requests whose path starts with
// one of excludePaths are not logged.
func NewRequestLogger(logger *slog.Logger, excludePaths ...string) *RequestLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestLogger{
		logger:       logger.WithGroup("http"),
		excludePaths: excludePaths,
	}
}

// Middleware returns the middleware function
func (rl *RequestLogger) Middleware() httpserver.HandlerFunc {
	return func(rp *httpserver.RequestProcessor) {
		r := rp.Request()
		if skipPathByPrefixes(r.URL.Path, rl.excludePaths) {
			rp.Next()
			return
		}

		start := time.Now()
		rp.Next()

		status := rp.Writer().Status()
		if status == 0 {
			status = http.StatusOK
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		rl.logger.LogAttrs(r.Context(), level, "HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", clientIP(r)),
		)
	}
}

func skipPathByPrefixes(path string, excludePrefixes []string) bool {
	for _, prefix := range excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// clientIP prefers the first X-Forwarded-For hop over the peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
