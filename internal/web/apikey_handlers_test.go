package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grhey0115/Tenant-Assessment/internal/auth"
)

func sessionAPI(t *testing.T, srv *Server, method, path string, cookie *http.Cookie, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func TestAPIKeysLifecycle(t *testing.T) {
	srv := testServer(t)
	cookie := signIn(t, srv, testAdmin)

	w := sessionAPI(t, srv, http.MethodPost, "/api/keys", cookie, `{"name":"laptop"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var created apiKeyCreated
	decodeBody(t, w, &created)
	if !strings.HasPrefix(created.Key, auth.APIKeyPrefix) {
		t.Errorf("key = %q, want prefix %q", created.Key, auth.APIKeyPrefix)
	}
	if created.APIKey.Email != testAdmin {
		t.Errorf("owner = %q, want %q", created.APIKey.Email, testAdmin)
	}

	// The new key works for the API.
	if w := apiRequest(t, srv, http.MethodGet, "/api/applicants", created.Key, nil); w.Code != http.StatusOK {
		t.Errorf("using new key status = %d, want %d", w.Code, http.StatusOK)
	}

	w = sessionAPI(t, srv, http.MethodGet, "/api/keys", cookie, "")
	var keys []auth.APIKey
	decodeBody(t, w, &keys)
	if len(keys) != 1 || keys[0].Name != "laptop" || keys[0].LastUsedAt == nil {
		t.Errorf("keys = %+v, want one used key named laptop", keys)
	}

	path := fmt.Sprintf("/api/keys/%d", created.APIKey.ID)
	if w := sessionAPI(t, srv, http.MethodDelete, path, cookie, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w := sessionAPI(t, srv, http.MethodDelete, path, cookie, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := apiRequest(t, srv, http.MethodGet, "/api/applicants", created.Key, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("revoked key status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAPIKeysRejectBearer(t *testing.T) {
	srv := testServer(t)
	w := apiRequest(t, srv, http.MethodGet, "/api/keys", apiKey(t, srv), nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAPIKeyDefaultName(t *testing.T) {
	srv := testServer(t)
	w := sessionAPI(t, srv, http.MethodPost, "/api/keys", signIn(t, srv, testAdmin), `{}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var created apiKeyCreated
	decodeBody(t, w, &created)
	if !strings.HasPrefix(created.APIKey.Name, "API key ") {
		t.Errorf("name = %q, want a dated default", created.APIKey.Name)
	}
}
