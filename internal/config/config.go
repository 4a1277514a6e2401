package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	defaultAPITimeout   = 8 * time.Second
	defaultSplashFloor  = 900 * time.Millisecond
	defaultSessionTTL   = 30 * 24 * time.Hour
	defaultStateIdleTTL = 2 * time.Hour
	defaultEnvironment  = "local"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Session   SessionConfig
	Bootstrap BootstrapConfig
	Guard     GuardConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BackendConfig points the gateway at the storefront REST backend.
// An empty BaseURL switches the gateway to fixture mode.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls the signed browser-session cookie and per-session state retention.
type SessionConfig struct {
	HashKey  []byte
	BlockKey []byte
	// EphemeralKeys is set when no hash key was configured and a process-local one
	// was generated instead. Sessions will not survive a restart.
	EphemeralKeys bool
	Secure        bool
	CookieTTL     time.Duration
	StateIdleTTL  time.Duration
}

// BootstrapConfig tunes the session-restore bootstrap.
type BootstrapConfig struct {
	// SplashFloor is the minimum duration a bootstrap response is held for,
	// independent of how fast the auth check completes.
	SplashFloor time.Duration
}

// GuardConfig locates the optional route guard policy file.
type GuardConfig struct {
	PolicyFile string
}

// Load reads configuration from the environment, consulting an optional .env file first.
func Load() (Config, error) {
	// Missing .env is fine; explicit files must exist.
	envFile := strings.TrimSpace(os.Getenv("BLOOM_WEB_ENV_FILE"))
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("config: load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load(defaultEnvFile)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         portFromEnv(),
			Environment:  getEnv("BLOOM_WEB_ENV", defaultEnvironment),
			ReadTimeout:  getDuration("BLOOM_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: getDuration("BLOOM_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  getDuration("BLOOM_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("BLOOM_WEB_API_BASE_URL", ""), "/"),
			Timeout: getDuration("BLOOM_WEB_API_TIMEOUT", defaultAPITimeout),
		},
		Session: SessionConfig{
			CookieTTL:    getDuration("BLOOM_WEB_SESSION_TTL", defaultSessionTTL),
			StateIdleTTL: getDuration("BLOOM_WEB_STATE_IDLE_TTL", defaultStateIdleTTL),
		},
		Bootstrap: BootstrapConfig{
			SplashFloor: getDuration("BLOOM_WEB_SPLASH_FLOOR", defaultSplashFloor),
		},
		Guard: GuardConfig{
			PolicyFile: getEnv("BLOOM_WEB_GUARD_POLICY", ""),
		},
	}
	cfg.Session.Secure = strings.EqualFold(cfg.Server.Environment, "prod")

	if key := getEnv("BLOOM_WEB_SESSION_HASH_KEY", ""); key != "" {
		cfg.Session.HashKey = []byte(key)
	} else {
		cfg.Session.HashKey = randomKey()
		cfg.Session.EphemeralKeys = true
	}
	if key := getEnv("BLOOM_WEB_SESSION_BLOCK_KEY", ""); key != "" {
		if n := len(key); n != 16 && n != 24 && n != 32 {
			return Config{}, fmt.Errorf("config: BLOOM_WEB_SESSION_BLOCK_KEY must be 16, 24 or 32 bytes, got %d", n)
		}
		cfg.Session.BlockKey = []byte(key)
	}

	return cfg, nil
}

func portFromEnv() string {
	// Prefer BLOOM_WEB_PORT, then the platform-provided PORT, else the default.
	if p := strings.TrimSpace(os.Getenv("BLOOM_WEB_PORT")); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		return p
	}
	return defaultPort
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func randomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		// Deterministic fallback keeps local development running; never used when
		// a key is configured.
		return []byte("insecure-dev-key-set-BLOOM_WEB_SESSION_HASH_KEY")
	}
	return key
}
