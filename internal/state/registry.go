// Package state assembles the per-browser-session state graph: credentials,
// session, cart, wishlist and a gateway client wired to them. The registry
// keys these bundles by session id and prunes idle ones.
package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/cart"
	"bloomfield.org/bloom-web/internal/credentials"
	"bloomfield.org/bloom-web/internal/gateway"
	"bloomfield.org/bloom-web/internal/session"
	"bloomfield.org/bloom-web/internal/wishlist"
)

// NoticeLog collects user-facing notices until the next page drains them.
type NoticeLog struct {
	mu       sync.Mutex
	messages []string
}

// Notify appends a notice.
func (n *NoticeLog) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

// Drain returns and clears the pending notices.
func (n *NoticeLog) Drain() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.messages
	n.messages = nil
	return out
}

// Client is the state bundle for one browser session.
type Client struct {
	Credentials *credentials.Memory
	Sessions    *session.Store
	Cart        *cart.Store
	Wishlist    *wishlist.Store
	Gateway     *gateway.Client
	Notices     *NoticeLog

	restorer    *session.Restorer
	restoreOnce sync.Once
	restoreErr  error
}

// Restore runs the session restore protocol at most once for this bundle.
// Later calls return the first outcome.
func (c *Client) Restore(ctx context.Context) error {
	c.restoreOnce.Do(func() {
		c.restoreErr = c.restorer.Run(ctx)
	})
	return c.restoreErr
}

// Logout clears every state object locally. Nothing is sent to the backend;
// abandoning the token is the logout.
func (c *Client) Logout() {
	c.Credentials.Clear()
	c.Sessions.Clear()
	c.Cart.Clear()
	c.Wishlist.Clear()
}

// Registry hands out state bundles keyed by session id. Bundles idle past the
// TTL are pruned on access.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*registryEntry

	baseURL    string
	httpClient gateway.HTTPClient
	idleTTL    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

type registryEntry struct {
	client   *Client
	lastSeen time.Time
}

// RegistryOption customises Registry behaviour.
type RegistryOption func(*Registry)

// WithHTTPClient overrides the transport used by per-session gateway clients.
func WithHTTPClient(hc gateway.HTTPClient) RegistryOption {
	return func(r *Registry) { r.httpClient = hc }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry constructs a registry. baseURL may be empty for fixture mode.
func NewRegistry(baseURL string, idleTTL time.Duration, logger *zap.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	r := &Registry{
		clients: map[string]*registryEntry{},
		baseURL: baseURL,
		idleTTL: idleTTL,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Client returns the bundle for the session id, building it on first use and
// seeding its credentials from the persisted cookie snapshot.
func (r *Registry) Client(sessionID string, seed map[string]string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	if entry, ok := r.clients[sessionID]; ok {
		entry.lastSeen = r.now()
		return entry.client, nil
	}

	client, err := r.buildClient(sessionID, seed)
	if err != nil {
		return nil, err
	}
	r.clients[sessionID] = &registryEntry{client: client, lastSeen: r.now()}
	return client, nil
}

// Rekey moves a bundle to a new session id after the id was regenerated, so
// state carried by an anonymous session (a pre-login cart, say) survives the
// login boundary.
func (r *Registry) Rekey(oldID, newID string) {
	if oldID == newID {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.clients[oldID]; ok {
		delete(r.clients, oldID)
		entry.lastSeen = r.now()
		r.clients[newID] = entry
	}
}

// Evict drops the bundle for the session id, if present.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, sessionID)
}

// Len reports the number of live bundles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Registry) buildClient(sessionID string, seed map[string]string) (*Client, error) {
	creds := credentials.NewMemory()
	creds.Seed(seed)

	sessions := session.NewStore()
	notices := &NoticeLog{}
	logger := r.logger.With(zap.String("session_id", sessionID))

	client := &Client{
		Credentials: creds,
		Sessions:    sessions,
		Notices:     notices,
	}

	gw, err := gateway.New(r.baseURL,
		gateway.WithCredentials(creds),
		gateway.WithLogger(logger),
		gateway.WithHTTPClient(r.httpClient),
		gateway.WithUnauthorizedHook(func() {
			logger.Info("backend rejected credentials, forcing logout")
			client.Logout()
			notices.Notify("Your session has expired. Please sign in again.")
		}),
	)
	if err != nil {
		return nil, err
	}

	client.Gateway = gw
	client.Cart = cart.NewStore(gw, logger)
	client.Wishlist = wishlist.NewStore(gw, notices, logger)
	client.restorer = session.NewRestorer(sessions, creds, gw, client.Wishlist, logger)
	return client, nil
}

// pruneLocked drops bundles idle past the TTL. Callers hold mu.
func (r *Registry) pruneLocked() {
	cutoff := r.now().Add(-r.idleTTL)
	for id, entry := range r.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(r.clients, id)
		}
	}
}
