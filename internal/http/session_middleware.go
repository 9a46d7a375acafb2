package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/session"
)

type ctxKey string

const (
	contextKeySession ctxKey = "taskhive-session"
	contextKeyUser    ctxKey = "taskhive-user"
)

const loginWarning = "Please login to manage tasks."

type contextSetter interface {
	SetContext(context.Context)
}

// withSession loads the caller's session, if any, into the request context.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sess, err := s.sessions.Load(req)
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			s.logger.Error("session lookup failed", "error", err, "path", req.URL.Path)
			s.renderError(w, req, http.StatusInternalServerError, "session unavailable")
			return
		}
		ctx := context.WithValue(req.Context(), contextKeySession, sess)
		s.publishContext(w, ctx)
		next(w, req.WithContext(ctx))
	}
}

// requireUser lets authenticated sessions through and answers everyone else
// with the login warning and nothing more.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sess := sessionFromContext(req.Context())
		if !sess.Authenticated() {
			s.renderWarning(w, req)
			return
		}
		user, err := s.accounts.User(req.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("session user missing", "user_id", sess.UserID)
				_ = s.sessions.Destroy(req.Context(), w, req)
				ctx := context.WithValue(req.Context(), contextKeySession, session.Session{})
				s.renderWarning(w, req.WithContext(ctx))
				return
			}
			s.logger.Error("session user lookup failed", "error", err, "user_id", sess.UserID)
			s.renderError(w, req, http.StatusInternalServerError, "failed to load account")
			return
		}
		ctx := context.WithValue(req.Context(), contextKeyUser, user)
		s.publishContext(w, ctx)
		next(w, req.WithContext(ctx))
	}
}

func (s *Server) renderWarning(w http.ResponseWriter, req *http.Request) {
	s.render(w, req, http.StatusUnauthorized, "tasks", map[string]any{
		"Title":   "Task Manager",
		"Warning": loginWarning,
	})
}

func (s *Server) publishContext(w http.ResponseWriter, ctx context.Context) {
	if setter, ok := w.(contextSetter); ok {
		setter.SetContext(ctx)
	}
}

// sessionFromContext returns the loaded session, or an anonymous one.
func sessionFromContext(ctx context.Context) session.Session {
	sess, _ := ctx.Value(contextKeySession).(session.Session)
	return sess
}

func userFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*domain.User)
	return user, ok && user != nil
}
