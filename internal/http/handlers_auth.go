package httpx

import (
	"errors"
	"net/http"

	"github.com/taskhive/taskhive/internal/service/account"
	"github.com/taskhive/taskhive/internal/session"
)

const pageTasks = "tasks"

func (s *Server) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	target := "/signup"
	if sess := sessionFromContext(req.Context()); sess.Authenticated() {
		target = pagePath(sess.Page)
	}
	redirectWithFlash(w, req, target, flashFromRequest(req))
}

func (s *Server) handleSignup(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		if sessionFromContext(req.Context()).Authenticated() {
			http.Redirect(w, req, "/tasks", http.StatusSeeOther)
			return
		}
		s.render(w, req, http.StatusOK, "signup", map[string]any{"Title": "Sign Up"})
	case http.MethodPost:
		if err := req.ParseForm(); err != nil {
			s.renderError(w, req, http.StatusBadRequest, "invalid form payload")
			return
		}
		username := req.PostFormValue("username")
		_, err := s.accounts.Signup(req.Context(), username, req.PostFormValue("password"), req.PostFormValue("confirm_password"))
		data := map[string]any{"Title": "Sign Up", "Username": username}
		switch {
		case err == nil:
			s.metrics.recordAction("signup")
			delete(data, "Username")
			data["Flash"] = "Account created successfully!"
			s.render(w, req, http.StatusCreated, "signup", data)
		case errors.Is(err, account.ErrPasswordMismatch):
			data["Error"] = "Passwords do not match."
			s.render(w, req, http.StatusBadRequest, "signup", data)
		case errors.Is(err, account.ErrUsernameRequired):
			data["Error"] = "Username is required."
			s.render(w, req, http.StatusBadRequest, "signup", data)
		case errors.Is(err, account.ErrUsernameTaken):
			data["Error"] = "Username already exists."
			s.render(w, req, http.StatusConflict, "signup", data)
		default:
			s.logger.Error("signup failed", "error", err)
			s.renderError(w, req, http.StatusInternalServerError, "account creation failed")
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		if sessionFromContext(req.Context()).Authenticated() {
			http.Redirect(w, req, "/tasks", http.StatusSeeOther)
			return
		}
		s.render(w, req, http.StatusOK, "login", map[string]any{"Title": "Login"})
	case http.MethodPost:
		if err := req.ParseForm(); err != nil {
			s.renderError(w, req, http.StatusBadRequest, "invalid form payload")
			return
		}
		username := req.PostFormValue("username")
		user, err := s.accounts.Login(req.Context(), username, req.PostFormValue("password"))
		if err != nil {
			if errors.Is(err, account.ErrInvalidCredentials) {
				s.render(w, req, http.StatusUnauthorized, "login", map[string]any{
					"Title":    "Login",
					"Error":    "Invalid credentials.",
					"Username": username,
				})
				return
			}
			s.logger.Error("login failed", "error", err)
			s.renderError(w, req, http.StatusInternalServerError, "login failed")
			return
		}
		if err := s.sessions.Destroy(req.Context(), w, req); err != nil {
			s.logger.Warn("previous session cleanup failed", "error", err)
		}
		if _, err := s.sessions.Start(req.Context(), w, session.Data{UserID: user.ID, Page: pageTasks}); err != nil {
			s.logger.Error("session issuance failed", "error", err, "user_id", user.ID)
			s.renderError(w, req, http.StatusInternalServerError, "session issuance failed")
			return
		}
		s.metrics.recordAction("login")
		redirectWithFlash(w, req, "/tasks", "Logged in successfully!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.sessions.Destroy(req.Context(), w, req); err != nil {
		s.logger.Warn("session destroy failed", "error", err)
	}
	s.metrics.recordAction("logout")
	redirectWithFlash(w, req, "/", "You have been logged out.")
}

// pagePath maps the screen recorded at login onto its route.
func pagePath(page string) string {
	if page == "" {
		page = pageTasks
	}
	return "/" + page
}
