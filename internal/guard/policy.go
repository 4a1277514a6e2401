package guard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bloomfield.org/bloom-web/internal/session"
)

// Policy maps roles to their login and dashboard routes. Redirect targets are
// configuration, not code, so deployments can reshape the route tree.
type Policy struct {
	Logins     map[session.Role]string `yaml:"logins"`
	Dashboards map[session.Role]string `yaml:"dashboards"`
}

// DefaultPolicy is the storefront's stock route layout.
func DefaultPolicy() Policy {
	return Policy{
		Logins: map[session.Role]string{
			session.RoleUser:   "/login",
			session.RoleVendor: "/vendor/login",
			session.RoleAdmin:  "/admin/login",
		},
		Dashboards: map[session.Role]string{
			session.RoleUser:   "/account",
			session.RoleVendor: "/vendor/dashboard",
			session.RoleAdmin:  "/admin/dashboard",
		},
	}
}

// LoadPolicy reads a policy file, filling gaps from the default layout.
func LoadPolicy(path string) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("guard: read policy: %w", err)
	}
	policy := DefaultPolicy()
	var overlay Policy
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return Policy{}, fmt.Errorf("guard: parse policy: %w", err)
	}
	for role, route := range overlay.Logins {
		if route != "" {
			policy.Logins[role] = route
		}
	}
	for role, route := range overlay.Dashboards {
		if route != "" {
			policy.Dashboards[role] = route
		}
	}
	return policy, nil
}

// Login returns the login route for the role.
func (p Policy) Login(role session.Role) string {
	if route, ok := p.Logins[role]; ok {
		return route
	}
	return "/login"
}

// Dashboard returns the post-login landing route for the role.
func (p Policy) Dashboard(role session.Role) string {
	if route, ok := p.Dashboards[role]; ok {
		return route
	}
	return "/"
}
