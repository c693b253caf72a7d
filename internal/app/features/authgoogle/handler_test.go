package authgoogle

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/codehaven/codehaven/internal/app/system/auth"
	"github.com/codehaven/codehaven/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	issuer := auth.NewTokenIssuer("test-secret", 0)
	return NewHandler(db, issuer, "client-id", "client-secret", "http://localhost:8080",
		[]byte("0123456789abcdef0123456789abcdef"), zap.NewNop())
}

func TestStartAuth(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/google", nil)
	rec := httptest.NewRecorder()
	h.startAuth(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	q := loc.Query()
	if q.Get("state") == "" {
		t.Error("redirect is missing the state parameter")
	}
	if q.Get("access_type") != "offline" {
		t.Errorf("access_type = %q, want offline", q.Get("access_type"))
	}
	if !strings.Contains(q.Get("scope"), DriveScope) {
		t.Errorf("scope %q does not include the drive scope", q.Get("scope"))
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("state cookie was not set")
	}
	var stored string
	if err := h.stateCodec.Decode(stateCookieName, cookie.Value, &stored); err != nil {
		t.Fatalf("decode state cookie: %v", err)
	}
	if stored != q.Get("state") {
		t.Errorf("cookie state %q != redirect state %q", stored, q.Get("state"))
	}
}

func TestCallback_RejectsStateMismatch(t *testing.T) {
	h := newTestHandler(t)

	// No cookie at all.
	req := httptest.NewRequest(http.MethodGet, "/google/callback?state=whatever&code=x", nil)
	rec := httptest.NewRecorder()
	h.handleCallback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no-cookie status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// Cookie from a real start, but a different state in the query.
	startRec := httptest.NewRecorder()
	h.startAuth(startRec, httptest.NewRequest(http.MethodGet, "/google", nil))
	var cookie *http.Cookie
	for _, c := range startRec.Result().Cookies() {
		if c.Name == stateCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("state cookie was not set")
	}

	req = httptest.NewRequest(http.MethodGet, "/google/callback?state=forged&code=x", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.handleCallback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("forged-state status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCallback_StateSingleUse(t *testing.T) {
	h := newTestHandler(t)

	startRec := httptest.NewRecorder()
	h.startAuth(startRec, httptest.NewRequest(http.MethodGet, "/google", nil))

	loc, _ := url.Parse(startRec.Header().Get("Location"))
	state := loc.Query().Get("state")
	var cookie *http.Cookie
	for _, c := range startRec.Result().Cookies() {
		if c.Name == stateCookieName {
			cookie = c
		}
	}

	// Consume the state once by reporting a provider error; the second
	// attempt with the same state must be rejected as unknown.
	req := httptest.NewRequest(http.MethodGet, "/google/callback?state="+state+"&error=access_denied", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.handleCallback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("denied-consent status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req = httptest.NewRequest(http.MethodGet, "/google/callback?state="+state+"&error=access_denied", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.handleCallback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("replayed-state status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestStartAuth_DropsExternalRedirect(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cases := []struct {
		redirectTo string
		want       string
	}{
		{"/workspace", "/workspace"},
		{"/projects/abc?tab=files", "/projects/abc?tab=files"},
		{"https://evil.example", ""},
		{"//evil.example/steal", ""},
		{"/\\evil.example", ""},
		{"javascript:alert(1)", ""},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.startAuth(rec, httptest.NewRequest(http.MethodGet,
			"/google?redirect_to="+url.QueryEscape(tc.redirectTo), nil))
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("redirect_to %q: status = %d", tc.redirectTo, rec.Code)
		}

		loc, _ := url.Parse(rec.Header().Get("Location"))
		st, err := h.states.Consume(ctx, loc.Query().Get("state"))
		if err != nil {
			t.Fatalf("redirect_to %q: consume state: %v", tc.redirectTo, err)
		}
		if st.RedirectTo != tc.want {
			t.Errorf("redirect_to %q: stored %q, want %q", tc.redirectTo, st.RedirectTo, tc.want)
		}
	}
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"/":                     "/",
		"/editor#pane":          "/editor#pane",
		"relative/path":         "",
		"https://evil.example/": "",
		"//evil.example":        "",
		"/\\evil.example":       "",
		"http:/evil.example":    "",
	}
	for in, want := range cases {
		if got := safeRedirect(in); got != want {
			t.Errorf("safeRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
