package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusShowsServerAndKey(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("TA_API_KEY", "ta_testapikey1234567890")
	t.Setenv("TA_SERVER_URL", "http://localhost:9999")

	// runStatus prints to stdout. Slicing the key prefix must not panic.
	if err := runStatus(); err != nil {
		t.Fatalf("status: %v", err)
	}
}

func TestStatusShortAPIKey(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("TA_API_KEY", "ta_ab")
	t.Setenv("TA_SERVER_URL", "http://localhost:9999")

	// Should not panic with a short key
	if err := runStatus(); err != nil {
		t.Fatalf("status with short key: %v", err)
	}
}

func TestStatusNoAPIKey(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("TA_API_KEY", "")
	t.Setenv("TA_SERVER_URL", "http://localhost:9999")

	if err := runStatus(); err != nil {
		t.Fatalf("status with no key: %v", err)
	}
}

func TestStatusWithServer(t *testing.T) {
	// Answers the applicant list for the valid bearer only.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/applicants" {
			t.Errorf("path = %q, want /api/applicants", r.URL.Path)
		}
		auth := r.Header.Get("Authorization")
		if auth == "Bearer ta_validkey1234567890abc" {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(map[string]any{"applicants": []any{}, "total": 0}); err != nil {
				http.Error(w, "encode error", http.StatusInternalServerError)
			}
		} else {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("TA_API_KEY", "ta_validkey1234567890abc")
	t.Setenv("TA_SERVER_URL", srv.URL)

	if err := runStatus(); err != nil {
		t.Fatalf("status: %v", err)
	}
}

func TestStatusWithInvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("TA_API_KEY", "ta_badkey1234567890abcde")
	t.Setenv("TA_SERVER_URL", srv.URL)

	// An invalid key is reported, not returned.
	if err := runStatus(); err != nil {
		t.Fatalf("status: %v", err)
	}
}
