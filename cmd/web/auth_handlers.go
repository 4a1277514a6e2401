package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/credentials"
	"bloomfield.org/bloom-web/internal/gateway"
	"bloomfield.org/bloom-web/internal/middleware"
	"bloomfield.org/bloom-web/internal/session"
)

type sessionResponse struct {
	Session  session.Session `json:"session"`
	Checking bool            `json:"checking"`
	Notices  []string        `json:"notices,omitempty"`
}

// handleBootstrap runs the session restore protocol. The response is held for
// the configured splash floor so a fast check does not flash the splash state.
func (a *app) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	_ = session.WithMinimumSplash(r.Context(), a.cfg.Bootstrap.SplashFloor, client.Restore)

	a.respond(w, r, client, http.StatusOK, sessionResponse{
		Session: client.Sessions.Current(),
		Notices: client.Notices.Drain(),
	})
}

// handleSession reports the current session without triggering a restore.
func (a *app) handleSession(w http.ResponseWriter, r *http.Request) {
	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	a.respond(w, r, client, http.StatusOK, sessionResponse{
		Session: client.Sessions.Current(),
		Notices: client.Notices.Drain(),
	})
}

// tokenKeyForPortal maps the login portal to the credential slot its token
// persists under.
func tokenKeyForPortal(portal string) string {
	switch portal {
	case gateway.PortalAdmin:
		return credentials.KeyAdminToken
	case gateway.PortalVendor:
		return credentials.KeyVendorToken
	default:
		return credentials.KeyToken
	}
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	portal := chi.URLParam(r, "portal")
	switch portal {
	case gateway.PortalUser, gateway.PortalVendor, gateway.PortalAdmin:
	default:
		a.error(w, http.StatusNotFound, "unknown login portal")
		return
	}

	var req gateway.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid login payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	grant, err := client.Gateway.Login(r.Context(), portal, req)
	if err != nil {
		a.logger.Info("login rejected", zap.String("portal", portal), zap.Error(err))
		a.error(w, http.StatusUnauthorized, "login failed")
		return
	}

	client.Credentials.Set(credentials.KeyUserID, grant.UserID)
	client.Credentials.Set(tokenKeyForPortal(portal), grant.Token)
	client.Sessions.SetAuthenticated(grant.UserID, session.ParseRole(grant.Role))

	sd := middleware.GetSession(r)
	oldID := sd.ID
	sd.RegenerateID()
	a.registry.Rekey(oldID, sd.ID)

	a.respond(w, r, client, http.StatusOK, sessionResponse{
		Session: client.Sessions.Current(),
	})
}

// handleLogout clears local state only; the backend token is simply abandoned.
func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	client.Logout()
	a.respond(w, r, client, http.StatusOK, sessionResponse{
		Session: client.Sessions.Current(),
	})
}

// handleLoginPage and handleDashboardPage back the guarded page routes. The
// interesting behaviour lives in the guards; the payload just names the page.
func (a *app) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, nil, http.StatusOK, map[string]string{"page": r.URL.Path})
}

func (a *app) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	client, err := a.client(r)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	a.respond(w, r, client, http.StatusOK, map[string]any{
		"page":    r.URL.Path,
		"session": client.Sessions.Current(),
	})
}
