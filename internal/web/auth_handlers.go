package web

import (
	"log/slog"
	"net/http"
	"strings"
)

const loginSentMsg = "If that email is registered, a sign-in link has been sent. Check your inbox."

// authHandlers serves the magic link sign-in flow.
type authHandlers struct {
	s *Server
}

type loginData struct {
	Message     string
	Error       string
	Next        string
	HasPasskeys bool
}

func (h *authHandlers) data(d loginData) loginData {
	has, err := h.s.passkeys.Any()
	if err != nil {
		slog.Warn("checking passkeys", "error", err)
	}
	d.HasPasskeys = has
	return d
}

// handleLogin shows the sign-in form and mails a link on POST. The reply
// is the same whether or not the email is authorized.
func (h *authHandlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.s.render(w, "login.html", h.data(loginData{Next: safeNext(r.URL.Query().Get("next"))}))
	case http.MethodPost:
		h.submit(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *authHandlers) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	next := safeNext(r.FormValue("next"))
	if email == "" {
		h.s.render(w, "login.html", h.data(loginData{Error: "Email is required", Next: next}))
		return
	}

	if h.s.users.IsAuthorized(email) {
		token, err := h.s.tokens.Create(email)
		if err != nil {
			slog.Error("creating token", "error", err)
		} else if _, err := h.s.mailer.SendMagicLink(r.Context(), email, token, next); err != nil {
			slog.Error("sending magic link", "email", email, "error", err)
		}
	} else {
		slog.Info("sign-in requested for unknown email", "email", email)
	}

	h.s.render(w, "login.html", h.data(loginData{Message: loginSentMsg, Next: next}))
}

// handleCallback redeems a magic link token and starts a session.
func (h *authHandlers) handleCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.s.render(w, "login.html", h.data(loginData{Error: "Invalid sign-in link"}))
		return
	}

	email, err := h.s.tokens.Redeem(token)
	if err != nil {
		slog.Info("magic link rejected", "error", err)
		h.s.render(w, "login.html", h.data(loginData{Error: "Invalid or expired sign-in link. Please request a new one."}))
		return
	}
	if !h.s.users.IsAuthorized(email) {
		h.s.render(w, "login.html", h.data(loginData{Error: "This account no longer has access."}))
		return
	}

	if _, err := h.s.sessions.Create(w, email); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("login success", "email", email, "method", "magic_link")

	next := safeNext(r.URL.Query().Get("next"))
	if next == "" {
		next = "/admin/dashboard"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleLogout ends the session.
func (h *authHandlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.s.sessions.Destroy(w, r); err != nil {
		slog.Error("destroying session", "error", err)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// safeNext keeps only local admin paths so the callback cannot be used as
// an open redirect.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/admin/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") && next != "/admin/login" {
		return next
	}
	return ""
}
