// Package credentials holds the persisted credential artifacts the storefront
// keeps on behalf of a browser session: the user identifier plus up to three
// role-scoped bearer tokens. Artifacts are always invalidated together.
package credentials

import (
	"maps"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Keys for persisted credential artifacts. The names match the backend's
// storage contract and survive round-trips through the session cookie.
const (
	KeyUserID      = "userId"
	KeyToken       = "token"
	KeyAdminToken  = "admin_token"
	KeyVendorToken = "vendor_token"
)

// tokenPriority orders bearer resolution: the most privileged token wins.
var tokenPriority = []string{KeyAdminToken, KeyVendorToken, KeyToken}

// Store is the persisted credential contract shared by the gateway and the
// session-restore protocol.
type Store interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
	// Clear removes every credential artifact at once; partial clears are not
	// part of the contract.
	Clear()
}

// Memory is an in-process Store. One instance backs each browser session; the
// session cookie carries snapshots across requests.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory constructs an empty credential store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Seed replaces the stored artifacts with the provided snapshot.
func (m *Memory) Seed(values map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string, len(values))
	maps.Copy(m.values, values)
}

// Snapshot returns a copy of the stored artifacts for cookie persistence.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.values) == 0 {
		return nil
	}
	out := make(map[string]string, len(m.values))
	maps.Copy(out, m.values)
	return out
}

func (m *Memory) Get(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key]
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.values, key)
		return
	}
	m.values[key] = value
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
}

// BearerToken resolves the outbound bearer with priority admin > vendor > user.
// Locally expired JWTs are skipped rather than sent.
func (m *Memory) BearerToken() string {
	for _, key := range tokenPriority {
		tok := m.Get(key)
		if tok == "" || Expired(tok) {
			continue
		}
		return tok
	}
	return ""
}

// Expired reports whether tok is a JWT whose exp claim has passed. The claim is
// read without signature verification; only the backend can vouch for a token,
// this check merely avoids sending tokens that are already dead. Opaque tokens
// never expire locally.
func Expired(tok string) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
