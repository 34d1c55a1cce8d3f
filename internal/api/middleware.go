package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/docscan/internal/logging"
)

// HTTPLoggingMiddleware logs each request once it completes.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	method, path := ctx.Method(), ctx.URL().Path
	status := ctx.Status()

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if q := ctx.URL().RawQuery; q != "" {
		attrs = append(attrs, slog.String("query", q))
	}
	if ua := ctx.Header("User-Agent"); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}

	logging.GetLogger("http").LogAttrs(ctx.Context(), requestLevel(method, path, status), "HTTP request completed", attrs...)
}

// requestLevel picks the log level for a finished request. Preflights and
// the UI's polling loop succeed many times a second and log at debug.
func requestLevel(method, path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case method == http.MethodOptions, isPolled(method, path):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func isPolled(method, path string) bool {
	return method == http.MethodGet && (path == previewPath || path == "/api/scanner/status")
}
