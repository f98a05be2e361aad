package web

import (
	"log/slog"
	"net/http"
	"strings"
)

// cliAuthHandlers issues an API key to the ta command line tool after the
// user signs in through the browser.
type cliAuthHandlers struct {
	s *Server
}

type cliAuthData struct {
	APIKey      string
	Message     string
	Error       string
	HasPasskeys bool
}

func (h *cliAuthHandlers) render(w http.ResponseWriter, d cliAuthData) {
	has, err := h.s.passkeys.Any()
	if err != nil {
		slog.Warn("checking passkeys", "error", err)
	}
	d.HasPasskeys = has
	h.s.render(w, "cli_auth.html", d)
}

// handleCLIAuth shows the sign-in form, or mails a CLI link on POST. A
// browser that is already signed in goes straight to key creation.
func (h *cliAuthHandlers) handleCLIAuth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, err := h.s.sessions.Current(r); err == nil {
			http.Redirect(w, r, "/cli/auth/complete", http.StatusSeeOther)
			return
		}
		h.render(w, cliAuthData{})
	case http.MethodPost:
		h.submitEmail(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *cliAuthHandlers) submitEmail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if email == "" {
		h.render(w, cliAuthData{Error: "Email is required"})
		return
	}

	if h.s.users.IsAuthorized(email) {
		token, err := h.s.tokens.Create(email)
		if err != nil {
			slog.Error("creating token", "error", err)
		} else if _, err := h.s.mailer.SendCLIMagicLink(r.Context(), email, token); err != nil {
			slog.Error("sending CLI magic link", "email", email, "error", err)
		}
	}

	h.render(w, cliAuthData{Message: loginSentMsg})
}

// handleCLIAuthVerify redeems the token, starts a session, and continues
// to key creation.
func (h *cliAuthHandlers) handleCLIAuthVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.render(w, cliAuthData{Error: "Invalid sign-in link"})
		return
	}

	email, err := h.s.tokens.Redeem(token)
	if err != nil || !h.s.users.IsAuthorized(email) {
		h.render(w, cliAuthData{Error: "Invalid or expired sign-in link. Please try again."})
		return
	}

	if _, err := h.s.sessions.Create(w, email); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/cli/auth/complete", http.StatusSeeOther)
}

// handleCLIAuthComplete creates a key for the signed-in user and shows it
// once.
func (h *cliAuthHandlers) handleCLIAuthComplete(w http.ResponseWriter, r *http.Request) {
	sess, err := h.s.sessions.Current(r)
	if err != nil {
		http.Redirect(w, r, "/cli/auth", http.StatusSeeOther)
		return
	}

	raw, _, err := h.s.apiKeys.Create("CLI", sess.Email)
	if err != nil {
		slog.Error("creating api key", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("cli key issued", "email", sess.Email)
	h.render(w, cliAuthData{APIKey: raw})
}
