package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/config"
	"bloomfield.org/bloom-web/internal/content"
	"bloomfield.org/bloom-web/internal/guard"
	"bloomfield.org/bloom-web/internal/middleware"
	"bloomfield.org/bloom-web/internal/state"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Config{}
	cfg.Bootstrap.SplashFloor = 5 * time.Millisecond
	cfg.Session.CookieTTL = time.Hour
	return &app{
		cfg:      cfg,
		logger:   zap.NewNop(),
		policy:   guard.DefaultPolicy(),
		registry: state.NewRegistry("", time.Hour, nil),
		sessions: middleware.NewSessionManager(middleware.SessionConfig{
			HashKey: []byte("0123456789abcdef0123456789abcdef"),
			TTL:     time.Hour,
		}),
		renderer: content.NewRenderer(),
	}
}

type browser struct {
	t      *testing.T
	http   *http.Client
	base   string
	server *url.URL
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		server: u,
	}
}

func (b *browser) csrfToken() string {
	for _, c := range b.http.Jar.Cookies(b.server) {
		if c.Name == "csrf_token" {
			return c.Value
		}
	}
	return ""
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	resp, err := b.http.Get(b.base + path)
	require.NoError(b.t, err)
	return resp
}

func (b *browser) send(method, path string, payload any) *http.Response {
	b.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(b.t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, b.base+path, body)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token := b.csrfToken(); token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	resp, err := b.http.Do(req)
	require.NoError(b.t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

// prime establishes the session and CSRF cookies with a safe request.
func (b *browser) prime() {
	b.t.Helper()
	resp := b.get("/api/session")
	require.Equal(b.t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	require.NotEmpty(b.t, b.csrfToken())
}

func (b *browser) login(portal string) sessionResponse {
	b.t.Helper()
	resp := b.send(http.MethodPost, "/api/login/"+portal, map[string]string{
		"email":    "demo@bloomfield.example",
		"password": "secret",
	})
	require.Equal(b.t, http.StatusOK, resp.StatusCode)
	var out sessionResponse
	decode(b.t, resp, &out)
	return out
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCatalogServesFixtureProducts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)

	var listing struct {
		Products []productView `json:"products"`
	}
	decode(t, b.get("/api/products"), &listing)
	require.Len(t, listing.Products, 4)

	var monstera *productView
	for i := range listing.Products {
		if listing.Products[i].ID == "plant-monstera" {
			monstera = &listing.Products[i]
		}
	}
	require.NotNil(t, monstera)
	require.Equal(t, "¥3,400", monstera.DisplayPrice)
	require.Contains(t, monstera.DescriptionHTML, "<strong>bright, indirect</strong>")
}

func TestUnknownProductIs404(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)

	resp := b.get("/api/products/no-such-plant")
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMutationWithoutCSRFTokenIsRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/logout", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoginEstablishesSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)
	b.prime()

	out := b.login("user")
	require.True(t, out.Session.Authenticated)
	require.EqualValues(t, "user", out.Session.Role)
	require.NotEmpty(t, out.Session.UserID)

	var current sessionResponse
	decode(t, b.get("/api/session"), &current)
	require.True(t, current.Session.Authenticated, "session survives into the next request")
}

func TestSessionSurvivesServerRestart(t *testing.T) {
	t.Parallel()

	application := newTestApp(t)
	srv := httptest.NewServer(application.router())
	defer srv.Close()
	b := newBrowser(t, srv)
	b.prime()
	b.login("user")

	// A restart loses the in-memory state bundles but not the cookie.
	application.registry = state.NewRegistry("", time.Hour, nil)

	resp := b.send(http.MethodPost, "/api/session/bootstrap", nil)
	var out sessionResponse
	decode(t, resp, &out)
	require.True(t, out.Session.Authenticated, "bootstrap restores from persisted credentials")
}

func TestAnonymousAdminRouteRedirectsToAdminLogin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)

	resp := b.get("/api/admin/orders")
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/admin/login", resp.Header.Get("Location"))
}

func TestWrongRoleIsSentToOwnDashboard(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)
	b.prime()
	b.login("vendor")

	resp := b.get("/admin/dashboard")
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/vendor/dashboard", resp.Header.Get("Location"))
}

func TestAdminFlow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)
	b.prime()
	b.login("admin")

	var listing struct {
		Orders []adminOrderView `json:"orders"`
	}
	resp := b.get("/api/admin/orders")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &listing)
	require.Len(t, listing.Orders, 2)
	require.Equal(t, "¥4,900", listing.Orders[0].DisplayTotal)

	// Login pages turn away authenticated sessions.
	resp = b.get("/admin/login")
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))
}

func TestCartFlow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)
	b.prime()
	b.login("user")

	var cart cartResponse
	resp := b.send(http.MethodPost, "/api/cart/items", map[string]any{"productId": "plant-monstera"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &cart)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 1, cart.Items[0].Quantity)

	resp = b.send(http.MethodPost, "/api/cart/items", map[string]any{"productId": "plant-monstera"})
	decode(t, resp, &cart)
	require.Len(t, cart.Items, 1, "same product merges into one line")
	require.Equal(t, 2, cart.Items[0].Quantity)
	require.Equal(t, int64(6800), cart.Subtotal)
	require.Equal(t, "¥6,800", cart.DisplayTotal)

	resp = b.send(http.MethodPut, "/api/cart/items/plant-monstera", map[string]any{"quantity": 0})
	decode(t, resp, &cart)
	require.Equal(t, 1, cart.Items[0].Quantity, "quantity is clamped, never zero")

	resp = b.send(http.MethodDelete, "/api/cart/items/plant-monstera", nil)
	decode(t, resp, &cart)
	require.Empty(t, cart.Items)
}

func TestWishlistToggleFlow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)
	b.prime()
	b.login("user")

	var wl wishlistResponse
	resp := b.send(http.MethodPost, "/api/wishlist/toggle", map[string]any{"productId": "gift-care-kit"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &wl)
	require.Len(t, wl.Entries, 1)
	require.Equal(t, "gift-care-kit", wl.Entries[0].ProductID)

	resp = b.send(http.MethodPost, "/api/wishlist/toggle", map[string]any{"productId": "gift-care-kit"})
	decode(t, resp, &wl)
	require.Empty(t, wl.Entries, "second toggle removes the entry")
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestApp(t).router())
	defer srv.Close()
	b := newBrowser(t, srv)
	b.prime()
	b.login("user")

	resp := b.send(http.MethodPost, "/api/cart/items", map[string]any{"productId": "plant-snake"})
	resp.Body.Close()

	var out sessionResponse
	resp = b.send(http.MethodPost, "/api/logout", nil)
	decode(t, resp, &out)
	require.False(t, out.Session.Authenticated)

	var cart cartResponse
	decode(t, b.get("/api/cart"), &cart)
	require.Empty(t, cart.Items)

	resp = b.send(http.MethodPost, "/api/session/bootstrap", nil)
	decode(t, resp, &out)
	require.False(t, out.Session.Authenticated, "no credentials survive logout")
}
