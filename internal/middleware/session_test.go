package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"bloomfield.org/bloom-web/internal/middleware"
)

func newManager(t *testing.T) *middleware.SessionManager {
	t.Helper()
	return middleware.NewSessionManager(middleware.SessionConfig{
		HashKey: []byte("0123456789abcdef0123456789abcdef"),
	})
}

func TestSessionCookieRoundTrip(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	var firstID string
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstID = middleware.GetSession(r).ID
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, firstID)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies, "new session is persisted")

	var secondID string
	handler = m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondID = middleware.GetSession(r).ID
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, firstID, secondID, "session id survives the round trip")
}

func TestSessionPersistsCredentialSnapshot(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.GetSession(r).ReplaceCredentials(map[string]string{"userId": "u1", "token": "tok"})
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	var restored map[string]string
	handler = m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		restored = middleware.GetSession(r).Credentials
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "u1", restored["userId"])
	require.Equal(t, "tok", restored["token"])
}

func TestTamperedCookieStartsFresh(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	var sid string
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid = middleware.GetSession(r).ID
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	original := sid

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		c.Value += "tampered"
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotEqual(t, original, sid, "invalid signature falls back to a new session")
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	handler := m.Handler(m.CSRF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFAcceptsDoubleSubmit(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	handler := m.Handler(m.CSRF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	// Prime cookies with a safe request.
	prime := httptest.NewRecorder()
	handler.ServeHTTP(prime, httptest.NewRequest(http.MethodGet, "/", nil))

	var token string
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, c := range prime.Result().Cookies() {
		req.AddCookie(c)
		if c.Name == "csrf_token" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)
	req.Header.Set("X-CSRF-Token", token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFRejectsWrongToken(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	handler := m.Handler(m.CSRF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	prime := httptest.NewRecorder()
	handler.ServeHTTP(prime, httptest.NewRequest(http.MethodGet, "/", nil))

	var token string
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, c := range prime.Result().Cookies() {
		req.AddCookie(c)
		if c.Name == "csrf_token" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)
	req.Header.Set("X-CSRF-Token", strings.Repeat("0", len(token)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFSkipsBearerClients(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	handler := m.Handler(m.CSRF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
