// Package web serves the intake form, the admin area, and the JSON API.
package web

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
	"github.com/grhey0115/Tenant-Assessment/internal/auth"
	"github.com/grhey0115/Tenant-Assessment/internal/blobstore"
	"github.com/grhey0115/Tenant-Assessment/internal/cache"
	"github.com/grhey0115/Tenant-Assessment/internal/dashboard"
	"github.com/grhey0115/Tenant-Assessment/internal/email"
	"github.com/grhey0115/Tenant-Assessment/internal/logging"
	"github.com/grhey0115/Tenant-Assessment/internal/note"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the HTTP front end.
type Server struct {
	cfg auth.Config

	applicants  *applicant.Cached
	notes       *note.Repository
	assessments *assessment.Repository
	validator   *assessment.Validator
	boards      *dashboard.Registry
	blobs       blobstore.Store
	sender      email.Sender

	sessions *auth.SessionStore
	tokens   *auth.TokenStore
	users    *auth.UserStore
	apiKeys  *auth.APIKeyStore
	passkeys *auth.PasskeyStore
	mailer   *auth.Mailer

	templates *template.Template
	mux       *http.ServeMux
	handler   http.Handler
}

// Option customizes a Server.
type Option func(*options)

type options struct {
	cache  cache.Cache
	sender email.Sender
	blobs  blobstore.Store
}

// WithCache caches the applicant list in c.
func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithSender replaces the SMTP sender.
func WithSender(s email.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithBlobStore replaces the voice note store.
func WithBlobStore(b blobstore.Store) Option {
	return func(o *options) { o.blobs = b }
}

// NewServer wires every store over d and registers the routes.
func NewServer(d *sql.DB, cfg auth.Config, opts ...Option) (*Server, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.sender == nil {
		o.sender = email.NewSMTPSender(cfg.SMTP(), cfg.DevMode)
	}
	if o.blobs == nil && cfg.BlobDir != "" {
		fsStore, err := blobstore.NewFS(cfg.BlobDir, cfg.BaseURL+"/blobs")
		if err != nil {
			return nil, fmt.Errorf("opening blob store: %w", err)
		}
		o.blobs = fsStore
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		applicants:  applicant.NewCached(applicant.NewRepository(d), o.cache, cfg.CacheTTL),
		notes:       note.NewRepository(d),
		assessments: assessment.NewRepository(d),
		validator:   assessment.NewValidator(),
		blobs:       o.blobs,
		sender:      o.sender,
		sessions:    auth.NewSessionStore(d),
		tokens:      auth.NewTokenStore(d),
		users:       auth.NewUserStore(d, cfg.AdminEmail),
		apiKeys:     auth.NewAPIKeyStore(d),
		passkeys:    auth.NewPasskeyStore(d),
		templates:   tmpl,
		mux:         http.NewServeMux(),
	}
	s.mailer = auth.NewMailer(cfg, s.sender)
	s.boards = dashboard.NewRegistry(func() *dashboard.Store {
		return dashboard.NewStore(s.applicants, s.notes)
	})
	s.sessions.OnChange(func(ev auth.SessionEvent) {
		if ev.Kind == auth.SignedOut {
			s.boards.Drop(ev.Session.ID)
		}
	})

	if err := s.routes(); err != nil {
		return nil, err
	}

	var h http.Handler = s.mux
	h = auth.RequireAPIKey(s.apiKeys, s.sessions, h)
	h = auth.RequireAdmin(s.sessions, h)
	h = logging.RequestLogger(h)
	h = logging.Recover(h)
	s.handler = h

	return s, nil
}

func (s *Server) routes() error {
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static sub-fs: %w", err)
	}
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	if fsStore, ok := s.blobs.(*blobstore.FS); ok {
		s.mux.Handle("/blobs/", http.StripPrefix("/blobs/", http.FileServer(http.Dir(fsStore.Root()))))
	}
	s.mux.HandleFunc("/health", s.handleHealth)

	// Public intake form.
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/form", s.handleForm)
	s.mux.HandleFunc("/form/units", s.handleFormUnits)

	// Sign-in.
	ah := &authHandlers{s: s}
	s.mux.HandleFunc("/admin/login", ah.handleLogin)
	s.mux.HandleFunc("/auth/callback", ah.handleCallback)
	s.mux.HandleFunc("/auth/logout", ah.handleLogout)

	ph, err := newPasskeyHandlers(s)
	if err != nil {
		return fmt.Errorf("configuring passkeys: %w", err)
	}
	s.mux.HandleFunc("/passkey/login/begin", ph.handleBeginLogin)
	s.mux.HandleFunc("/passkey/login/finish", ph.handleFinishLogin)
	s.mux.HandleFunc("/admin/passkeys/register/begin", ph.handleBeginRegistration)
	s.mux.HandleFunc("/admin/passkeys/register/finish", ph.handleFinishRegistration)
	s.mux.HandleFunc("/admin/passkeys/delete", ph.handleDelete)

	ch := &cliAuthHandlers{s: s}
	s.mux.HandleFunc("/cli/auth", ch.handleCLIAuth)
	s.mux.HandleFunc("/cli/auth/verify", ch.handleCLIAuthVerify)
	s.mux.HandleFunc("/cli/auth/complete", ch.handleCLIAuthComplete)

	// Admin pages.
	s.mux.HandleFunc("/admin", s.handleAdminRoot)
	s.mux.HandleFunc("/admin/", s.handleAdminRoot)
	s.mux.HandleFunc("/admin/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/admin/dashboard/", s.handleDashboardAction)
	s.mux.HandleFunc("/admin/applicants", s.handleAdminApplicants)
	s.mux.HandleFunc("/admin/applicants/", s.handleAdminApplicantRoute)
	s.mux.HandleFunc("/admin/evaluations", s.handleEvaluations)
	s.mux.HandleFunc("/admin/settings", s.handleSettings)

	// JSON API.
	s.mux.HandleFunc("/api/applicants", s.handleAPIApplicants)
	s.mux.HandleFunc("/api/applicants/", s.handleAPIApplicantRoute)
	s.mux.HandleFunc("/api/assessments", s.handleAPIAssessments)
	s.mux.HandleFunc("/api/assessments/", s.handleAPIAssessment)
	s.mux.HandleFunc("/api/analytics", s.handleAPIAnalytics)
	s.mux.HandleFunc("/api/properties", s.handleAPIProperties)
	s.mux.HandleFunc("/api/properties/", s.handleAPIPropertyRoute)
	s.mux.HandleFunc("/api/send-email", s.handleAPISendEmail)

	kh := &apikeyHandlers{keys: s.apiKeys}
	s.mux.HandleFunc("/api/keys", kh.handleAPIKeysRoute)
	s.mux.HandleFunc("/api/keys/", kh.handleAPIKeysRoute)

	uh := &userHandlers{users: s.users}
	s.mux.HandleFunc("/api/users", uh.handleUsersRoute)
	s.mux.HandleFunc("/api/users/", uh.handleUsersRoute)

	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Applicants exposes the cached applicant store for background jobs.
func (s *Server) Applicants() *applicant.Cached {
	return s.applicants
}

// Sessions exposes the session store for background cleanup.
func (s *Server) Sessions() *auth.SessionStore {
	return s.sessions
}

// Tokens exposes the magic link store for background cleanup.
func (s *Server) Tokens() *auth.TokenStore {
	return s.tokens
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr, "base_url", s.cfg.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/form", http.StatusSeeOther)
}

func (s *Server) handleAdminRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/admin" && r.URL.Path != "/admin/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// render executes the named template into a buffer first so a template
// error never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	s.renderStatus(w, name, data, http.StatusOK)
}

func (s *Server) renderStatus(w http.ResponseWriter, name string, data any, code int) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(buf.String())); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

// pathID extracts the numeric segment following prefix, and the rest of
// the path after it. /api/applicants/7/notes with prefix /api/applicants/
// gives 7, "notes".
func pathID(path, prefix string) (int64, string, error) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	idStr, tail, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid id %q", idStr)
	}
	return id, tail, nil
}
