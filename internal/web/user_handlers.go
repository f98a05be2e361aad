package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/grhey0115/Tenant-Assessment/internal/auth"
)

// userHandlers manages the people allowed to sign in. Admin only.
type userHandlers struct {
	users *auth.UserStore
}

type addUserRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAgent bool   `json:"is_agent"`
}

// handleUsersRoute routes /api/users and /api/users/{id}.
func (h userHandlers) handleUsersRoute(w http.ResponseWriter, r *http.Request) {
	if !h.users.IsAdmin(auth.EmailFrom(r.Context())) {
		apiError(w, "admin access required", http.StatusForbidden)
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users"), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.add(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		apiError(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodDelete {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.delete(w, id)
}

func (h userHandlers) list(w http.ResponseWriter) {
	users, err := h.users.List()
	if err != nil {
		slog.Error("listing users", "error", err)
		apiError(w, "listing users failed", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	apiJSON(w, users, http.StatusOK)
}

func (h userHandlers) add(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		apiError(w, "email is required", http.StatusBadRequest)
		return
	}

	u, err := h.users.Add(req.Email, req.Name, req.IsAgent)
	if errors.Is(err, auth.ErrUserExists) {
		apiError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("adding user", "error", err)
		apiError(w, "adding user failed", http.StatusInternalServerError)
		return
	}
	apiJSON(w, u, http.StatusCreated)
}

func (h userHandlers) delete(w http.ResponseWriter, id int64) {
	err := h.users.Delete(id)
	if errors.Is(err, auth.ErrUserNotFound) {
		apiError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("deleting user", "id", id, "error", err)
		apiError(w, "deleting user failed", http.StatusInternalServerError)
		return
	}
	apiJSON(w, map[string]any{"id": id, "deleted": true}, http.StatusOK)
}
