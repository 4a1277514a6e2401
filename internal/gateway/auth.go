package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
)

// Portals name the three login variants the backend exposes.
const (
	PortalUser   = "user"
	PortalVendor = "vendor"
	PortalAdmin  = "admin"
)

// LoginRequest carries the credentials submitted to a login portal.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the session grant returned on successful login.
type LoginResponse struct {
	UserID string
	Token  string
	Role   string
}

type loginPayload struct {
	UserID  string `json:"userId"`
	ID      string `json:"id"`
	MongoID string `json:"_id"`
	Token   string `json:"token"`
	Role    string `json:"role"`
}

// Login obtains a session from the portal matching the requested role.
func (c *Client) Login(ctx context.Context, portal string, req LoginRequest) (LoginResponse, error) {
	switch portal {
	case PortalUser, PortalVendor, PortalAdmin:
	default:
		return LoginResponse{}, fmt.Errorf("gateway: unknown login portal %q", portal)
	}
	if c.FixtureMode() {
		return fixtureLogin(portal, req), nil
	}

	httpReq, err := c.newJSONRequest(ctx, http.MethodPost, path.Join("/", portal, "login"), req)
	if err != nil {
		return LoginResponse{}, err
	}
	resp, err := c.do(httpReq)
	if err != nil {
		return LoginResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return LoginResponse{}, c.statusError(resp)
	}

	var payload loginPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return LoginResponse{}, fmt.Errorf("gateway: decode login response: %w", err)
	}
	out := LoginResponse{
		UserID: firstNonEmpty(payload.UserID, payload.ID, payload.MongoID),
		Token:  payload.Token,
		Role:   firstNonEmpty(payload.Role, portal),
	}
	return out, nil
}

// Address is a delivery address embedded in the user profile.
type Address struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Line1     string `json:"line1,omitempty"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city,omitempty"`
	Region    string `json:"region,omitempty"`
	Postal    string `json:"postal,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Profile is the backend user record, with addresses and wishlist embedded so
// session restore can hydrate local state in one round trip.
type Profile struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Addresses []Address
	Wishlist  []WishlistEntry
}

type profilePayload struct {
	ID        string          `json:"id"`
	MongoID   string          `json:"_id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Addresses []Address       `json:"addresses"`
	Wishlist  []WishlistEntry `json:"wishlist"`
}

// UnmarshalJSON resolves the profile identifier aliases.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw profilePayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Profile{
		ID:        firstNonEmpty(raw.ID, raw.MongoID),
		Name:      raw.Name,
		Email:     raw.Email,
		Role:      raw.Role,
		Addresses: raw.Addresses,
		Wishlist:  raw.Wishlist,
	}
	return nil
}

// Profile fetches the user record for the given id.
func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	if c.FixtureMode() {
		return fixtureProfile(userID), nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, path.Join("/user", url.PathEscape(userID)), nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return Profile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, c.statusError(resp)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("gateway: decode profile: %w", err)
	}
	return profile, nil
}
