package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/config"
	"bloomfield.org/bloom-web/internal/content"
	"bloomfield.org/bloom-web/internal/guard"
	"bloomfield.org/bloom-web/internal/middleware"
	"bloomfield.org/bloom-web/internal/session"
	"bloomfield.org/bloom-web/internal/state"
)

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	policy   guard.Policy
	registry *state.Registry
	sessions *middleware.SessionManager
	renderer *content.Renderer
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMid.RequestID)
	r.Use(chiMid.RealIP)
	r.Use(middleware.RequestLogger(a.logger))
	r.Use(chiMid.Recoverer)
	r.Use(chiMid.Compress(5))
	r.Use(chiMid.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(a.sessions.Handler)
		r.Use(a.sessions.CSRF)

		r.Post("/api/session/bootstrap", a.handleBootstrap)
		r.Get("/api/session", a.handleSession)
		r.Post("/api/login/{portal}", a.handleLogin)
		r.Post("/api/logout", a.handleLogout)

		r.Get("/api/products", a.handleListProducts)
		r.Get("/api/products/{productID}", a.handleGetProduct)

		r.Get("/api/cart", a.handleGetCart)
		r.Post("/api/cart/items", a.handleAddCartItem)
		r.Put("/api/cart/items/{productID}", a.handleUpdateCartItem)
		r.Delete("/api/cart/items/{productID}", a.handleRemoveCartItem)

		r.Get("/api/wishlist", a.handleGetWishlist)
		r.Post("/api/wishlist/toggle", a.handleToggleWishlist)
		r.Delete("/api/wishlist/{entryID}", a.handleRemoveWishlistEntry)

		r.With(guard.Require(a.policy, a.guardSessions(), session.RoleAdmin)).
			Get("/api/admin/orders", a.handleAdminOrders)

		// Guarded page entrypoints. The client renders these; the server
		// decides who may land on them.
		r.With(guard.PublicOnly(a.policy, a.guardSessions())).Get("/login", a.handleLoginPage)
		r.With(guard.PublicOnly(a.policy, a.guardSessions())).Get("/vendor/login", a.handleLoginPage)
		r.With(guard.PublicOnly(a.policy, a.guardSessions())).Get("/admin/login", a.handleLoginPage)
		r.With(guard.Require(a.policy, a.guardSessions())).Get("/account", a.handleDashboardPage)
		r.With(guard.Require(a.policy, a.guardSessions(), session.RoleVendor)).Get("/vendor/dashboard", a.handleDashboardPage)
		r.With(guard.Require(a.policy, a.guardSessions(), session.RoleAdmin)).Get("/admin/dashboard", a.handleDashboardPage)
	})

	return r
}

// client resolves the state bundle for the request's browser session, seeding
// credentials from the cookie snapshot on first contact.
func (a *app) client(r *http.Request) (*state.Client, error) {
	sd := middleware.GetSession(r)
	return a.registry.Client(sd.ID, sd.Credentials)
}

// guardSessions adapts the registry to the guard's session source. The restore
// protocol runs (once) before any guard decision, so a returning browser with
// valid credentials is recognised on its first guarded request.
func (a *app) guardSessions() guard.SessionSource {
	return guard.SessionSourceFunc(func(r *http.Request) session.Session {
		client, err := a.client(r)
		if err != nil {
			return session.Session{}
		}
		_ = client.Restore(r.Context())
		return client.Sessions.Current()
	})
}

// respond persists the credential snapshot into the session cookie and writes
// the JSON payload. Persisting here catches both logins and forced logouts.
func (a *app) respond(w http.ResponseWriter, r *http.Request, client *state.Client, status int, payload any) {
	if client != nil {
		middleware.GetSession(r).ReplaceCredentials(client.Credentials.Snapshot())
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			a.logger.Warn("response encode failed", zap.Error(err))
		}
	}
}

func (a *app) error(w http.ResponseWriter, code int, msg string) {
	middleware.WriteError(w, code, msg)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(dst)
}
