// Package session owns the authenticated identity for one browser session.
// The session is written on login, cleared on logout or by the gateway's 401
// hook, and read-only everywhere else.
package session

import (
	"strings"
	"sync"
)

// Role is the access tier granted by the backend.
type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// ParseRole normalizes a backend role string; unknown values fall back to the
// customer role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleVendor:
		return RoleVendor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Session is the current identity snapshot.
type Session struct {
	UserID        string `json:"userId,omitempty"`
	Role          Role   `json:"role,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// Store holds the session for one browser session.
type Store struct {
	mu      sync.RWMutex
	current Session
}

// NewStore constructs an anonymous session store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the session snapshot.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetAuthenticated records a successful login or restore.
func (s *Store) SetAuthenticated(userID string, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{UserID: userID, Role: role, Authenticated: true}
}

// Clear resets the session to anonymous.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
}
