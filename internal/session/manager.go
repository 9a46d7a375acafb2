package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	jwtpkg "github.com/taskhive/taskhive/pkg/jwt"
)

// ErrNoSession is returned by Load for anonymous requests: no cookie, an
// invalid cookie, or a cookie whose state has expired or been destroyed.
var ErrNoSession = errors.New("session: anonymous")

// Session is a loaded session.
type Session struct {
	ID string
	Data
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool {
	return s.ID != "" && s.UserID != ""
}

// Manager binds server-side session state to a signed cookie.
type Manager struct {
	secret     string
	cookieName string
	secure     bool
	ttl        time.Duration
	store      Store
}

// New constructs a Manager.
func New(secret, cookieName string, secure bool, ttl time.Duration, store Store) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret must be configured")
	}
	if store == nil {
		return nil, errors.New("session store required")
	}
	if cookieName == "" {
		cookieName = "taskhive_session"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: secret, cookieName: cookieName, secure: secure, ttl: ttl, store: store}, nil
}

// Load resolves the session attached to the request.
func (m *Manager) Load(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return Session{}, ErrNoSession
	}
	claims, err := jwtpkg.Parse(cookie.Value, m.secret)
	if err != nil {
		return Session{}, ErrNoSession
	}
	data, err := m.store.Get(r.Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return Session{ID: claims.SessionID, Data: data}, nil
}

// Start stores data under a fresh session id and sets the cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, data Data) (Session, error) {
	id := uuid.NewString()
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now().UTC()
	}
	if err := m.store.Save(ctx, id, data, m.ttl); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	token, err := jwtpkg.GenerateToken(id, m.secret, m.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
		Expires:  time.Now().Add(m.ttl),
	})
	return Session{ID: id, Data: data}, nil
}

// Destroy drops the stored state for the request's session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, m.ExpireCookie())
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil
	}
	claims, err := jwtpkg.Parse(cookie.Value, m.secret)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.SessionID)
}

// ExpireCookie returns a cookie that clears the session cookie.
func (m *Manager) ExpireCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
		MaxAge:   -1,
	}
}
