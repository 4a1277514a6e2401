package middleware

import (
	"maps"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"
)

const defaultCookieName = "bloom_session"

// SessionData is the signed cookie payload for one browser session. It keys
// the server-side state bundle and persists the credential snapshot that
// survives browser restarts.
type SessionData struct {
	ID          string            `json:"id"`
	Credentials map[string]string `json:"creds,omitempty"`
	CSRFToken   string            `json:"csrf,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`

	dirty bool
}

// MarkDirty flags the session for rewriting at the end of the request.
func (s *SessionData) MarkDirty() {
	s.dirty = true
	s.UpdatedAt = time.Now().UTC()
}

// ReplaceCredentials persists a new credential snapshot into the cookie. An
// unchanged snapshot leaves the session clean so the cookie is not rewritten.
func (s *SessionData) ReplaceCredentials(creds map[string]string) {
	if len(creds) == 0 {
		creds = nil
	}
	if maps.Equal(s.Credentials, creds) {
		return
	}
	s.Credentials = creds
	s.MarkDirty()
}

// RegenerateID assigns a fresh session id, preventing fixation across a login
// boundary. The CSRF token stays, since the client still holds its cookie copy.
func (s *SessionData) RegenerateID() {
	s.ID = ulid.Make().String()
	s.MarkDirty()
}

// SessionManager encodes the session cookie with securecookie and attaches the
// decoded payload to the request context.
type SessionManager struct {
	codec      *securecookie.SecureCookie
	cookieName string
	secure     bool
	ttl        time.Duration
}

// SessionConfig carries the cookie keys and attributes.
type SessionConfig struct {
	HashKey    []byte
	BlockKey   []byte
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// NewSessionManager constructs a manager. BlockKey is optional; without it the
// cookie is signed but not encrypted.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	codec.MaxAge(int(cfg.TTL / time.Second))
	return &SessionManager{
		codec:      codec,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		ttl:        cfg.TTL,
	}
}

// Handler loads or initialises the session and writes the cookie back before
// the first response byte when the session changed.
func (m *SessionManager) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := m.read(r)
		if sd.ID == "" {
			sd.ID = ulid.Make().String()
			sd.CSRFToken = newCSRFToken()
			sd.CreatedAt = time.Now().UTC()
			sd.UpdatedAt = sd.CreatedAt
			sd.dirty = true
		}

		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				m.write(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(contextWithSession(r.Context(), sd)))

		// Nothing written yet (HEAD, 204 paths); persist now.
		if !rw.Wrote() && (sd.dirty || !fromCookie) {
			m.write(w, sd)
		}
	})
}

func (m *SessionManager) read(r *http.Request) (*SessionData, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := m.codec.Decode(m.cookieName, cookie.Value, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func (m *SessionManager) write(w http.ResponseWriter, sd *SessionData) {
	encoded, err := m.codec.Encode(m.cookieName, sd)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(m.ttl),
	})
}

// GetSession returns the session payload from the request context.
func GetSession(r *http.Request) *SessionData {
	if sd, ok := r.Context().Value(ctxKeySession).(*SessionData); ok {
		return sd
	}
	return &SessionData{}
}
