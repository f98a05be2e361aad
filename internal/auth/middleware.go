package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type ctxKey struct{}

// WithSession returns ctx carrying the authenticated caller. Callers
// authenticated by API key have an empty session ID.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// SessionFrom returns the caller stored by the middleware.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// EmailFrom returns the authenticated email, or "" for anonymous requests.
func EmailFrom(ctx context.Context) string {
	s, _ := SessionFrom(ctx)
	return s.Email
}

const (
	loginPath     = "/admin/login"
	dashboardPath = "/admin/dashboard"
	callbackPath  = "/auth/callback"
)

// RequireAdmin guards the admin area. Every /admin path except the login
// page needs a session; requests without one are sent to the login page.
// Signed-in users hitting the login page or the magic link callback go
// straight to the dashboard.
func RequireAdmin(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		guarded := path == "/admin" || strings.HasPrefix(path, "/admin/")
		entry := path == loginPath || path == callbackPath
		if !guarded && !entry {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := sessions.Current(r)
		if err != nil && !errors.Is(err, ErrNoSession) {
			slog.Error("reading session", "error", err)
		}
		signedIn := err == nil

		switch {
		case entry && signedIn:
			http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		case entry:
			next.ServeHTTP(w, r)
		case !signedIn:
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		}
	})
}

const (
	rateLimitWindow  = time.Minute
	rateLimitMaxFail = 10
)

// rateLimiter counts failed API key attempts per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

// recent drops attempts older than the window. Caller holds mu.
func (rl *rateLimiter) recent(ip string) []time.Time {
	cutoff := rl.now().Add(-rateLimitWindow)
	kept := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = kept
	return kept
}

func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.recent(ip)) >= rateLimitMaxFail
}

func (rl *rateLimiter) fail(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attempts[ip] = append(rl.recent(ip), rl.now())
}

// RequireAPIKey authenticates /api/ requests with a bearer key or an admin
// session. Key and user management accept a session only. Ten failed keys
// from one IP within a minute get 429 until the window passes.
func RequireAPIKey(apiKeys *APIKeyStore, sessions *SessionStore, next http.Handler) http.Handler {
	limiter := newRateLimiter()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		if sess, err := sessions.Current(r); err == nil {
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
			return
		}

		if isSessionOnlyPath(r.URL.Path) {
			jsonError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			jsonError(w, "authorization required", http.StatusUnauthorized)
			return
		}

		ip := clientIP(r)
		if limiter.limited(ip) {
			jsonError(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		email, ok, err := apiKeys.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			slog.Error("validating api key", "error", err)
			jsonError(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !ok {
			limiter.fail(ip)
			jsonError(w, "invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), Session{Email: email})))
	})
}

func isSessionOnlyPath(path string) bool {
	for _, p := range []string{"/api/keys", "/api/users"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
