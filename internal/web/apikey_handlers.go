package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/auth"
)

// apikeyHandlers manages the API keys of the signed-in user.
type apikeyHandlers struct {
	keys *auth.APIKeyStore
}

type apiKeyCreated struct {
	Key    string       `json:"key"`
	APIKey *auth.APIKey `json:"api_key"`
}

// handleAPIKeysRoute routes /api/keys and /api/keys/{id}.
func (h apikeyHandlers) handleAPIKeysRoute(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/keys"), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodDelete {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		apiError(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	h.delete(w, id)
}

func (h apikeyHandlers) list(w http.ResponseWriter) {
	keys, err := h.keys.List()
	if err != nil {
		slog.Error("listing api keys", "error", err)
		apiError(w, "listing keys failed", http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []auth.APIKey{}
	}
	apiJSON(w, keys, http.StatusOK)
}

func (h apikeyHandlers) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API key " + time.Now().Format(time.DateOnly)
	}

	raw, key, err := h.keys.Create(name, auth.EmailFrom(r.Context()))
	if err != nil {
		slog.Error("creating api key", "error", err)
		apiError(w, "creating key failed", http.StatusInternalServerError)
		return
	}
	apiJSON(w, apiKeyCreated{Key: raw, APIKey: key}, http.StatusCreated)
}

func (h apikeyHandlers) delete(w http.ResponseWriter, id int64) {
	err := h.keys.Delete(id)
	if errors.Is(err, auth.ErrKeyNotFound) {
		apiError(w, "key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("deleting api key", "id", id, "error", err)
		apiError(w, "deleting key failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
