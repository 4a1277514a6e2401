// Package guard enforces role-based access on the route tree. Guards redirect
// rather than reject: a storefront visitor who lands on a protected page is
// sent to the matching login, and a signed-in user who lacks the role is sent
// back to their own dashboard.
package guard

import (
	"net/http"

	"bloomfield.org/bloom-web/internal/session"
)

// SessionSource yields the session for the incoming request.
type SessionSource interface {
	SessionFor(r *http.Request) session.Session
}

// SessionSourceFunc adapts a function to the SessionSource interface.
type SessionSourceFunc func(r *http.Request) session.Session

func (f SessionSourceFunc) SessionFor(r *http.Request) session.Session { return f(r) }

// specificity orders login targets when a route admits several roles: the
// most privileged admitted role decides which login the visitor sees.
var specificity = []session.Role{session.RoleAdmin, session.RoleVendor, session.RoleUser}

// Require admits only authenticated sessions holding one of the roles. An
// empty role list admits any authenticated session. Anonymous visitors are
// redirected to the most specific admitted login; authenticated sessions with
// the wrong role are redirected to their own dashboard.
func Require(policy Policy, sessions SessionSource, roles ...session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current := sessions.SessionFor(r)
			if !current.Authenticated {
				http.Redirect(w, r, policy.Login(loginRole(roles)), http.StatusFound)
				return
			}
			if len(roles) > 0 && !hasRole(current.Role, roles) {
				http.Redirect(w, r, policy.Dashboard(current.Role), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PublicOnly is the inverse guard for login pages: authenticated sessions are
// sent to their own dashboard instead.
func PublicOnly(policy Policy, sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if current := sessions.SessionFor(r); current.Authenticated {
				http.Redirect(w, r, policy.Dashboard(current.Role), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func loginRole(roles []session.Role) session.Role {
	for _, candidate := range specificity {
		if hasRole(candidate, roles) {
			return candidate
		}
	}
	return session.RoleUser
}

func hasRole(role session.Role, roles []session.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
