// Package web provides the HTTP server and pages for metalstats.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 24 * time.Hour
)

// Session represents an authenticated user session. The OAuth token it
// holds is mutated only through UpdateToken (the credential gate persists
// refreshed tokens there) and destroyed with the session.
type Session struct {
	ID        string
	Token     *oauth2.Token
	UserID    string
	UserName  string
	CreatedAt time.Time
}

// SessionManager defines the interface for session management.
type SessionManager interface {
	Create(ctx context.Context, token *oauth2.Token, userID, userName string) (*Session, error)
	Get(ctx context.Context, id string) *Session
	Delete(ctx context.Context, id string)
	UpdateToken(ctx context.Context, id string, token *oauth2.Token)
	GetFromRequest(r *http.Request) *Session
	SetCookie(w http.ResponseWriter, session *Session)
	ClearCookie(w http.ResponseWriter)
}

// SessionStore manages user sessions in memory. Credentials are per-process
// state and do not survive restarts; users simply log in again.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create generates a new session with the given token and user info.
func (s *SessionStore) Create(_ context.Context, token *oauth2.Token, userID, userName string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        id,
		Token:     token,
		UserID:    userID,
		UserName:  userName,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session, nil
}

// Get retrieves a session by ID. Expired sessions are treated as absent.
// The returned session is a snapshot taken under the store lock; writes
// go through UpdateToken, never through the returned value.
func (s *SessionStore) Get(_ context.Context, id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil
	}

	if time.Since(session.CreatedAt) > sessionTTL {
		return nil
	}

	snapshot := *session
	return &snapshot
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// UpdateToken updates the OAuth token for a session.
func (s *SessionStore) UpdateToken(_ context.Context, id string, token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		session.Token = token
	}
}

// GetFromRequest extracts the session from the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	return s.Get(r.Context(), cookie.Value)
}

// SetCookie sets the session cookie on the response.
func (s *SessionStore) SetCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// ClearCookie removes the session cookie from the response.
func (s *SessionStore) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var _ SessionManager = (*SessionStore)(nil)
