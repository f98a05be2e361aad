package web

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// linkPath pulls the path and query of the first base URL link in body.
func linkPath(t *testing.T, body string) string {
	t.Helper()
	for _, f := range strings.Fields(body) {
		if strings.HasPrefix(f, "http://localhost:8080/") {
			return strings.TrimPrefix(f, "http://localhost:8080")
		}
	}
	t.Fatalf("no link in %q", body)
	return ""
}

func TestLoginPageRendersForm(t *testing.T) {
	srv := testServer(t)
	w := getPage(t, srv, "/admin/login", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `name="email"`) {
		t.Error("login page missing email field")
	}
	if strings.Contains(w.Body.String(), "data-passkey-login") {
		t.Error("passkey button shown with no passkeys registered")
	}
}

func TestMagicLinkFlow(t *testing.T) {
	srv, _, sender := testServerWithDB(t)

	w := formRequest(t, srv, "/admin/login", nil, url.Values{"email": {"Admin@Example.com"}, "next": {"/admin/evaluations"}})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "sign-in link has been sent") {
		t.Error("expected sent message")
	}

	msgs := sender.sent()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	if msgs[0].To[0] != testAdmin {
		t.Errorf("to = %q, want %q", msgs[0].To[0], testAdmin)
	}

	w = getPage(t, srv, linkPath(t, msgs[0].Body), nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("callback status = %d, want %d; body: %s", w.Code, http.StatusSeeOther, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/admin/evaluations" {
		t.Errorf("Location = %q, want %q", loc, "/admin/evaluations")
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	w = getPage(t, srv, "/admin/dashboard", cookies[0])
	if w.Code != http.StatusOK {
		t.Errorf("dashboard status = %d, want %d", w.Code, http.StatusOK)
	}

	// The link works once.
	w = getPage(t, srv, linkPath(t, msgs[0].Body), nil)
	if !strings.Contains(w.Body.String(), "Invalid or expired sign-in link") {
		t.Error("expected reused link to be rejected")
	}
}

func TestLoginUnknownEmailSendsNothing(t *testing.T) {
	srv, _, sender := testServerWithDB(t)

	w := formRequest(t, srv, "/admin/login", nil, url.Values{"email": {"stranger@example.com"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "sign-in link has been sent") {
		t.Error("reply should not reveal whether the email is registered")
	}
	if n := len(sender.sent()); n != 0 {
		t.Errorf("sent %d messages, want 0", n)
	}
}

func TestLoginEmptyEmail(t *testing.T) {
	srv := testServer(t)
	w := formRequest(t, srv, "/admin/login", nil, url.Values{"email": {"  "}})
	if !strings.Contains(w.Body.String(), "Email is required") {
		t.Error("expected required message")
	}
}

func TestCallbackInvalidToken(t *testing.T) {
	srv := testServer(t)
	w := getPage(t, srv, "/auth/callback?token=nope", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "Invalid or expired sign-in link") {
		t.Error("expected invalid link message")
	}
}

func TestCallbackIgnoresForeignNext(t *testing.T) {
	srv := testServer(t)
	token, err := srv.tokens.Create(testAdmin)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	w := getPage(t, srv, "/auth/callback?token="+token+"&next="+url.QueryEscape("https://evil.example.com/"), nil)
	if loc := w.Header().Get("Location"); loc != "/admin/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "/admin/dashboard")
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"/admin/evaluations":   "/admin/evaluations",
		"/admin/applicants/3":  "/admin/applicants/3",
		"/admin/login":         "",
		"/form":                "",
		"//evil.example.com":   "",
		"https://evil.example": "",
		`/admin/\evil`:         "",
		"":                     "",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogout(t *testing.T) {
	srv := testServer(t)
	cookie := signIn(t, srv, testAdmin)

	w := formRequest(t, srv, "/auth/logout", cookie, url.Values{})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	w = getPage(t, srv, "/admin/dashboard", cookie)
	if loc := w.Header().Get("Location"); loc != "/admin/login" {
		t.Errorf("after logout Location = %q, want %q", loc, "/admin/login")
	}
}

func TestAdminRedirectsToLogin(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/admin/dashboard", "/admin/evaluations", "/admin/settings", "/admin/applicants/1"} {
		w := getPage(t, srv, path, nil)
		if w.Code != http.StatusSeeOther {
			t.Errorf("%s status = %d, want %d", path, w.Code, http.StatusSeeOther)
			continue
		}
		if loc := w.Header().Get("Location"); loc != "/admin/login" {
			t.Errorf("%s Location = %q, want %q", path, loc, "/admin/login")
		}
	}
}

func TestSignedInLoginRedirectsToDashboard(t *testing.T) {
	srv := testServer(t)
	w := getPage(t, srv, "/admin/login", signIn(t, srv, testAdmin))
	if loc := w.Header().Get("Location"); loc != "/admin/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "/admin/dashboard")
	}
}

func TestCLIAuthFlow(t *testing.T) {
	srv, _, sender := testServerWithDB(t)

	w := formRequest(t, srv, "/cli/auth", nil, url.Values{"email": {testAdmin}})
	if w.Code != http.StatusOK {
		t.Fatalf("cli auth status = %d, want %d", w.Code, http.StatusOK)
	}
	msgs := sender.sent()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}

	w = getPage(t, srv, linkPath(t, msgs[0].Body), nil)
	if loc := w.Header().Get("Location"); loc != "/cli/auth/complete" {
		t.Fatalf("verify Location = %q, want %q", loc, "/cli/auth/complete")
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	w = getPage(t, srv, "/cli/auth/complete", cookies[0])
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "ta_") {
		t.Error("expected an API key on the page")
	}

	keys, err := srv.apiKeys.List()
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if len(keys) != 1 || keys[0].Email != testAdmin {
		t.Errorf("keys = %+v, want one key for %s", keys, testAdmin)
	}
}

func TestCLIAuthCompleteWithoutSession(t *testing.T) {
	srv := testServer(t)
	w := getPage(t, srv, "/cli/auth/complete", nil)
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
}
