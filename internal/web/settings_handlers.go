package web

import (
	"log/slog"
	"net/http"

	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
	"github.com/grhey0115/Tenant-Assessment/internal/auth"
)

type settingsData struct {
	Email      string
	IsAdmin    bool
	Passkeys   []auth.StoredCredential
	APIKeys    []auth.APIKey
	Users      []*auth.User
	Properties []*assessment.Property
}

// handleSettings shows passkeys, API keys, and for the admin, users and
// properties. Changes go through the JSON API.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := auth.EmailFrom(r.Context())
	d := settingsData{Email: email, IsAdmin: s.users.IsAdmin(email)}

	var err error
	if d.Passkeys, err = s.passkeys.ListByEmail(email); err != nil {
		slog.Error("listing passkeys", "error", err)
	}
	if d.APIKeys, err = s.apiKeys.List(); err != nil {
		slog.Error("listing api keys", "error", err)
	}
	if d.Properties, err = s.assessments.Properties(r.Context()); err != nil {
		slog.Error("listing properties", "error", err)
	}
	if d.IsAdmin {
		if d.Users, err = s.users.List(); err != nil {
			slog.Error("listing users", "error", err)
		}
	}

	s.render(w, "settings.html", d)
}
