package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// audit wraps a route with one structured log line and the request metrics.
func (s *Server) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, ctx: req.Context()}
		start := time.Now()
		next(rec, req)
		elapsed := time.Since(start)

		status := rec.statusCode()
		s.metrics.recordRequest(req.Method, route, status, elapsed)

		attrs := []slog.Attr{
			slog.String("route", route),
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", rec.written),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
			slog.String("ip", clientIP(req)),
		}
		if id := strings.TrimSpace(req.Header.Get("X-Request-ID")); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if sess := sessionFromContext(rec.ctx); sess.Authenticated() {
			attrs = append(attrs, slog.String("user_id", sess.UserID))
		}
		s.logger.LogAttrs(req.Context(), levelForStatus(status), "http_request", attrs...)
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// responseRecorder remembers what the handler wrote and the context it ended
// up with, so audit can see the session loaded further down the chain.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
	ctx     context.Context
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += n
	return n, err
}

func (r *responseRecorder) SetContext(ctx context.Context) {
	r.ctx = ctx
}

func (r *responseRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(req *http.Request) string {
	if first, _, _ := strings.Cut(req.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	addr := strings.TrimSpace(req.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
