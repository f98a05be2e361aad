package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	sessionExpiry = 30 * 24 * time.Hour
	cookieName    = "ta_session"
)

// ErrNoSession is returned when the request carries no usable session.
var ErrNoSession = errors.New("no session")

// Session is a signed-in admin.
type Session struct {
	ID    string
	Email string
}

// EventKind says whether a session began or ended.
type EventKind int

// Session lifecycle events.
const (
	SignedIn EventKind = iota
	SignedOut
)

// SessionEvent is delivered to OnChange observers.
type SessionEvent struct {
	Kind    EventKind
	Session Session
}

// SessionStore manages sessions in SQLite.
type SessionStore struct {
	db *sql.DB

	mu        sync.Mutex
	observers []func(SessionEvent)
}

// NewSessionStore creates a session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// OnChange registers fn to run after every sign-in and sign-out.
func (s *SessionStore) OnChange(fn func(SessionEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *SessionStore) emit(ev SessionEvent) {
	s.mu.Lock()
	obs := make([]func(SessionEvent), len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()

	for _, fn := range obs {
		fn(ev)
	}
}

// Create starts a session for email and sets the cookie.
func (s *SessionStore) Create(w http.ResponseWriter, email string) (Session, error) {
	id, err := randomHex(32)
	if err != nil {
		return Session{}, fmt.Errorf("generating session ID: %w", err)
	}

	expiresAt := time.Now().Add(sessionExpiry)
	if _, err := s.db.Exec(
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		id, email, expiresAt,
	); err != nil {
		return Session{}, fmt.Errorf("storing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	sess := Session{ID: id, Email: email}
	s.emit(SessionEvent{Kind: SignedIn, Session: sess})
	return sess, nil
}

// Current returns the live session attached to r.
func (s *SessionStore) Current(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, ErrNoSession
	}

	var (
		email     string
		expiresAt time.Time
	)
	err = s.db.QueryRow(
		"SELECT email, expires_at FROM sessions WHERE id = ?",
		cookie.Value,
	).Scan(&email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(expiresAt) {
		if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
			return Session{}, fmt.Errorf("deleting expired session: %w", err)
		}
		s.emit(SessionEvent{Kind: SignedOut, Session: Session{ID: cookie.Value, Email: email}})
		return Session{}, ErrNoSession
	}

	return Session{ID: cookie.Value, Email: email}, nil
}

// Validate returns the email of the signed-in user.
func (s *SessionStore) Validate(r *http.Request) (string, error) {
	sess, err := s.Current(r)
	if err != nil {
		return "", err
	}
	return sess.Email, nil
}

// Destroy removes the session and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}

	var email string
	err = s.db.QueryRow("SELECT email FROM sessions WHERE id = ?", cookie.Value).Scan(&email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("querying session: %w", err)
	}
	found := err == nil

	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if found {
		s.emit(SessionEvent{Kind: SignedOut, Session: Session{ID: cookie.Value, Email: email}})
	}
	return nil
}

// Cleanup removes expired sessions. Each one is reported to observers as
// a sign-out.
func (s *SessionStore) Cleanup() error {
	rows, err := s.db.Query("DELETE FROM sessions WHERE expires_at < ? RETURNING id, email", time.Now())
	if err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	var expired []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Email); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning expired session: %w", err)
		}
		expired = append(expired, sess)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing expired sessions: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating expired sessions: %w", err)
	}

	for _, sess := range expired {
		s.emit(SessionEvent{Kind: SignedOut, Session: sess})
	}
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
