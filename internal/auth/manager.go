// Package auth owns the login glue: the OAuth redirect dance, in-memory
// sessions, and resolving the signed-in email that the core joins on.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"lockerd/internal/app"
	"lockerd/internal/identity"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const sessionCookie = "lockerd_session"

// Scopes per capability. Editors read the workbooks under their own
// credential, so they need Drive and Sheets read access on top of the email
// scope every signed-in user grants.
var capabilityScopes = map[identity.Capability][]string{
	identity.CapUser: {
		"https://www.googleapis.com/auth/userinfo.email",
	},
	identity.CapEditor: {
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/drive.readonly",
		"https://www.googleapis.com/auth/spreadsheets.readonly",
	},
}

// Session is one browser's login state.
type Session struct {
	ID               string
	Email            identity.Email
	Token            *oauth2.Token
	PostAuthRedirect string

	granted map[identity.Capability]bool
	pending map[identity.Capability]bool
}

// Authenticated reports whether the session holds a live token, a resolved
// identity, and every listed capability.
func (s *Session) Authenticated(caps ...identity.Capability) bool {
	if s.Email == "" || s.Token == nil || !s.Token.Valid() {
		return false
	}
	for _, c := range caps {
		if !s.granted[c] {
			return false
		}
	}
	return true
}

// Principal converts the session into the identity collaborator's view.
func (s *Session) Principal() identity.Principal {
	caps := make([]identity.Capability, 0, len(s.granted))
	for c := range s.granted {
		caps = append(caps, c)
	}
	return identity.NewPrincipal(s.Email, caps...)
}

// Manager holds sessions and runs the auth-code flow. Sessions live in
// process memory; a restart just sends everyone back through login.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	clientID     string
	clientSecret string
	redirectURL  string
}

func NewManager(cfg app.Config) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		clientID:     cfg.OAuthClientID,
		clientSecret: cfg.OAuthClientSecret,
		redirectURL:  cfg.OAuthRedirectURL,
	}
}

// ensureSession finds the caller's session or starts a fresh one.
func (m *Manager) ensureSession(w http.ResponseWriter, r *http.Request) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := m.sessions[cookie.Value]; ok {
			return sess
		}
	}

	sess := &Session{
		ID:      uuid.NewString(),
		granted: make(map[identity.Capability]bool),
		pending: make(map[identity.Capability]bool),
	}
	m.sessions[sess.ID] = sess
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})
	return sess
}

// RequireCapability wraps a handler so unauthenticated callers get sent
// through the login flow and come back to the same path afterwards.
func (m *Manager) RequireCapability(next func(http.ResponseWriter, *http.Request, *Session), caps ...identity.Capability) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.ensureSession(w, r)

		m.mu.Lock()
		for _, c := range caps {
			sess.pending[c] = true
		}
		m.mu.Unlock()

		if !sess.Authenticated(caps...) {
			sess.PostAuthRedirect = r.URL.Path
			log.Debug().
				Str("session", sess.ID).
				Str("path", r.URL.Path).
				Msg("Redirecting to login")
			http.Redirect(w, r, m.oauthConfig(sess).AuthCodeURL(sess.ID), http.StatusFound)
			return
		}
		next(w, r, sess)
	}
}

// HandleCallback finishes the auth-code exchange and resolves the signed-in
// email through the userinfo endpoint.
func (m *Manager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	m.mu.Lock()
	sess, ok := m.sessions[state]
	m.mu.Unlock()
	if !ok || code == "" {
		http.Error(w, "invalid login callback", http.StatusBadRequest)
		return
	}

	cfg := m.oauthConfig(sess)
	token, err := cfg.Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("OAuth code exchange failed")
		http.Error(w, "login failed", http.StatusBadGateway)
		return
	}

	email, err := resolveEmail(r.Context(), cfg.TokenSource(r.Context(), token))
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve signed-in email")
		http.Error(w, "login failed", http.StatusBadGateway)
		return
	}

	m.mu.Lock()
	sess.Token = token
	sess.Email = email
	for c := range sess.pending {
		sess.granted[c] = true
	}
	redirect := sess.PostAuthRedirect
	m.mu.Unlock()

	if redirect == "" {
		redirect = "/"
	}
	log.Info().Str("identity", string(email)).Msg("Login completed")
	http.Redirect(w, r, redirect, http.StatusFound)
}

// TokenSource exposes the session's credential for user-context fetches.
func (m *Manager) TokenSource(ctx context.Context, sess *Session) oauth2.TokenSource {
	return m.oauthConfig(sess).TokenSource(ctx, sess.Token)
}

// oauthConfig builds the flow config with the union of the scopes every
// pending capability needs.
func (m *Manager) oauthConfig(sess *Session) *oauth2.Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var scopes []string
	for c := range sess.pending {
		for _, scope := range capabilityScopes[c] {
			if !seen[scope] {
				seen[scope] = true
				scopes = append(scopes, scope)
			}
		}
	}
	if len(scopes) == 0 {
		scopes = capabilityScopes[identity.CapUser]
	}

	return &oauth2.Config{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		RedirectURL:  m.redirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

func resolveEmail(ctx context.Context, ts oauth2.TokenSource) (identity.Email, error) {
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	return identity.Normalize(info.Email), nil
}
