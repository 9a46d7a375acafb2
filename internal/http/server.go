package httpx

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskhive/taskhive/internal/service/account"
	"github.com/taskhive/taskhive/internal/service/task"
	"github.com/taskhive/taskhive/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	rateWindowAuth     = time.Minute
	healthCheckTimeout = 2 * time.Second
	dueLayout          = "2006-01-02 15:04"
)

// Options carries the optional knobs of a Server.
type Options struct {
	// AuthRateLimit caps sign-up and login submissions per client IP per
	// minute. Zero disables the limit.
	AuthRateLimit int
	// Location supplies today and now for blank date/time pickers. Due dates
	// themselves are wall-clock values and are printed as stored.
	Location *time.Location
	// Health pings the backing store for /healthz.
	Health func(context.Context) error
	// Registry receives the HTTP metrics and is exposed on /metrics.
	Registry *prometheus.Registry
	// Now overrides the clock used for picker defaults.
	Now func() time.Time
}

// Server renders the TaskHive screens and wires form submissions to the
// account and task services.
type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	accounts  account.Service
	tasks     task.Service
	sessions  *session.Manager
	limiter   RateLimiter
	templates *template.Template
	metrics   *httpMetrics
	registry  *prometheus.Registry
	opts      Options
}

// New assembles routes with dependencies.
func New(logger *slog.Logger, accounts account.Service, tasks task.Service, sessions *session.Manager, limiter RateLimiter, opts Options) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("session manager required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if limiter == nil {
		limiter = NewMemoryRateLimiter()
	}
	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		accounts: accounts,
		tasks:    tasks,
		sessions: sessions,
		limiter:  limiter,
		registry: opts.Registry,
		opts:     opts,
	}
	templates, err := template.New("base").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s.templates = templates
	metrics, err := newHTTPMetrics(opts.Registry)
	if err != nil {
		return nil, err
	}
	s.metrics = metrics
	s.register()
	return s, nil
}

// ServeHTTP delegates to underlying mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}

func (s *Server) register() {
	s.mux.HandleFunc("/", s.audit("index", s.withSession(s.handleIndex)))
	s.mux.HandleFunc("/signup", s.audit("signup", s.withSession(s.withAuthRateLimit("signup", s.handleSignup))))
	s.mux.HandleFunc("/login", s.audit("login", s.withSession(s.withAuthRateLimit("login", s.handleLogin))))
	s.mux.HandleFunc("/logout", s.audit("logout", s.withSession(s.handleLogout)))
	s.mux.HandleFunc("/tasks", s.audit("tasks", s.withSession(s.requireUser(s.handleTasks))))
	s.mux.HandleFunc("/tasks/", s.audit("task_action", s.withSession(s.requireUser(s.handleTaskAction))))
	s.mux.HandleFunc("/healthz", s.audit("healthz", s.handleHealthz))
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Server) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.opts.Health != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.opts.Health(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// render executes tpl with data, filling in the chrome every screen shares.
func (s *Server) render(w http.ResponseWriter, req *http.Request, status int, tpl string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	sess := sessionFromContext(req.Context())
	data["Authenticated"] = sess.Authenticated()
	data["Screen"] = tpl
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = flashFromRequest(req)
	}
	if _, ok := data["Error"]; !ok {
		data["Error"] = errorFromRequest(req)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, tpl, data); err != nil {
		s.logger.Error("template render failed", "template", tpl, "error", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, req *http.Request, status int, message string) {
	s.logger.Warn("request failed", "status", status, "message", message, "path", req.URL.Path)
	http.Error(w, message, status)
}

func (s *Server) formatDue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dueLayout)
}

func flashFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("flash"))
}

func errorFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("error"))
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, message string) {
	redirectWithParam(w, r, target, "flash", message)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, target, message string) {
	redirectWithParam(w, r, target, "error", message)
}

func redirectWithParam(w http.ResponseWriter, r *http.Request, target, key, message string) {
	if strings.TrimSpace(target) == "" {
		target = "/"
	}
	if strings.TrimSpace(message) == "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	u, err := url.Parse(target)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	q := u.Query()
	q.Set(key, message)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}
