package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/grhey0115/Tenant-Assessment/internal/auth"
)

const ceremonyTTL = 5 * time.Minute

// passkeyHandlers runs WebAuthn registration and login ceremonies.
type passkeyHandlers struct {
	s   *Server
	wan *webauthn.WebAuthn

	// In-flight ceremonies. Registrations are keyed by email; logins by
	// the challenge so several people can sign in at once.
	mu            sync.Mutex
	registrations map[string]*webauthn.SessionData
	logins        map[string]*webauthn.SessionData
}

func newPasskeyHandlers(s *Server) (*passkeyHandlers, error) {
	wan, err := auth.NewWebAuthn(s.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &passkeyHandlers{
		s:             s,
		wan:           wan,
		registrations: make(map[string]*webauthn.SessionData),
		logins:        make(map[string]*webauthn.SessionData),
	}, nil
}

// prune drops expired ceremonies. Caller holds mu.
func (h *passkeyHandlers) prune() {
	now := time.Now()
	for k, sd := range h.logins {
		if !sd.Expires.IsZero() && now.After(sd.Expires) {
			delete(h.logins, k)
		}
	}
}

func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email := auth.EmailFrom(r.Context())

	creds, err := h.s.passkeys.WebAuthnCredentials(email)
	if err != nil {
		slog.Error("loading credentials", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	exclude := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		exclude[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(auth.NewPasskeyUser(email, creds), webauthn.WithExclusions(exclude))
	if err != nil {
		slog.Error("beginning registration", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.registrations[email] = session
	h.mu.Unlock()

	apiJSON(w, creation, http.StatusOK)
}

func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email := auth.EmailFrom(r.Context())

	h.mu.Lock()
	session, ok := h.registrations[email]
	delete(h.registrations, email)
	h.mu.Unlock()
	if !ok {
		apiError(w, "no registration in progress", http.StatusBadRequest)
		return
	}

	creds, err := h.s.passkeys.WebAuthnCredentials(email)
	if err != nil {
		slog.Error("loading credentials", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	credential, err := h.wan.FinishRegistration(auth.NewPasskeyUser(email, creds), *session, r)
	if err != nil {
		slog.Warn("finishing registration", "error", err)
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}
	if err := h.s.passkeys.Save(email, name, credential); err != nil {
		slog.Error("saving credential", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("passkey registered", "email", email, "name", name)
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *passkeyHandlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	err := h.s.passkeys.Delete(r.FormValue("id"), auth.EmailFrom(r.Context()))
	if err != nil && !errors.Is(err, auth.ErrCredentialNotFound) {
		slog.Error("deleting passkey", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}

// handleBeginLogin starts a discoverable login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if session.Expires.IsZero() {
		session.Expires = time.Now().Add(ceremonyTTL)
	}

	h.mu.Lock()
	h.prune()
	h.logins[session.Challenge] = session
	h.mu.Unlock()

	apiJSON(w, assertion, http.StatusOK)
}

// handleFinishLogin verifies the assertion and starts a session.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parsed, err := protocol.ParseCredentialRequestResponse(r)
	if err != nil {
		apiError(w, "invalid assertion", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	session, ok := h.logins[parsed.Response.CollectedClientData.Challenge]
	delete(h.logins, parsed.Response.CollectedClientData.Challenge)
	h.mu.Unlock()
	if !ok {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}

	var signedIn string
	lookup := func(rawID, userHandle []byte) (webauthn.User, error) {
		emails, err := h.s.users.AllEmails()
		if err != nil {
			return nil, err
		}
		for _, email := range emails {
			if bytes.Equal(auth.NewPasskeyUser(email, nil).WebAuthnID(), userHandle) {
				creds, err := h.s.passkeys.WebAuthnCredentials(email)
				if err != nil {
					return nil, err
				}
				signedIn = email
				return auth.NewPasskeyUser(email, creds), nil
			}
		}
		return nil, protocol.ErrBadRequest.WithDetails("unknown user")
	}

	if _, _, err := h.wan.ValidatePasskeyLogin(lookup, *session, parsed); err != nil {
		slog.Warn("passkey login failed", "error", err)
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}

	if _, err := h.s.sessions.Create(w, signedIn); err != nil {
		slog.Error("creating session", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "email", signedIn, "method", "passkey")
	apiJSON(w, map[string]string{"status": "ok", "redirect": "/admin/dashboard"}, http.StatusOK)
}
