// Package session binds authenticated users to browser sessions through an
// opaque cookie token and gates protected routes.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"accounting/internal/auth"
	applog "accounting/internal/log"
	"accounting/internal/models"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "session"
	// DefaultDuration is how long sessions last (30 days).
	DefaultDuration = 30 * 24 * time.Hour
	// LoginPath is where Require sends anonymous requests.
	LoginPath = "/login"
)

// ErrNoSession means the request carries no live session.
var ErrNoSession = errors.New("no active session")

// Manager creates, looks up and ends session bindings.
type Manager struct {
	store        Store
	duration     time.Duration
	secureCookie bool
}

// NewManager creates a Manager. A non-positive duration means DefaultDuration.
func NewManager(store Store, duration time.Duration, secureCookie bool) *Manager {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Manager{store: store, duration: duration, secureCookie: secureCookie}
}

// Start binds user to the caller's session, replacing any binding the
// request already carried, and sets the session cookie.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, user *models.User) (*models.Session, error) {
	ctx := r.Context()
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := m.store.DeleteSession(ctx, cookie.Value); err != nil {
			applog.FromContext(ctx).Warn("Failed to drop previous session", "error", err)
		}
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now()
	s := models.Session{
		Token:        token,
		UserID:       user.ID,
		Username:     user.Username,
		ExpiresAt:    now.Add(m.duration),
		LastActivity: now,
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.setCookie(w, token)
	return &s, nil
}

// Current returns the live session of the request or ErrNoSession.
func (m *Manager) Current(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	s, err := m.store.GetSession(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// End removes the caller's binding and clears the cookie.
func (m *Manager) End(w http.ResponseWriter, r *http.Request) error {
	defer m.clearCookie(w)

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return m.store.DeleteSession(r.Context(), cookie.Value)
}

// Require wraps handlers that need a logged in user. Anonymous requests are
// redirected to the login page. Sessions past the halfway point of their
// lifetime are renewed, which keeps active users logged in.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := applog.FromContext(r.Context())

		s, err := m.Current(r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				logger.Error("Session lookup failed", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			m.clearCookie(w)
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		now := time.Now()
		if s.ExpiresAt.Sub(now) < m.duration/2 {
			if err := m.store.RenewSession(r.Context(), s.Token, now.Add(m.duration)); err == nil {
				m.setCookie(w, s.Token)
			} else {
				logger.Warn("Session renewal failed", "error", err)
			}
		}

		ctx := WithAuth(r.Context(), Authenticated(s.UserID, s.Username))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Janitor removes expired sessions every interval until ctx is done.
func (m *Manager) Janitor(ctx context.Context, interval time.Duration) error {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentSession)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := m.store.CleanExpiredSessions(ctx)
			if err != nil {
				logger.Warn("Session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("Expired sessions removed", "count", n)
			}
		}
	}
}

func (m *Manager) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.duration.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
