package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session storage scopes for the browser cookie that carries the backend session.
const (
	SessionStorageDurable = "durable"
	SessionStorageTab     = "tab"
)

type Config struct {
	Port                 string
	Environment          string
	SupabaseURL          string
	SupabaseKey          string
	SupabaseDBURL        string
	SupabaseJWKSURL      string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	SupabaseJWTSecret    string // Legacy HS256 projects; takes precedence over JWKS when set
	CORSOrigins          string
	TablePrefix          string
	SessionSecret        string
	SessionStorage       string
	Locale               string
	LogDir               string
	LogMaxFiles          int
	ConnectivitySchedule string
	WorkspaceIdleTimeout time.Duration
}

// ErrMissingConfig is returned by Load when a required value is absent.
var ErrMissingConfig = errors.New("missing required configuration")

// Load reads configuration from the environment. SUPABASE_URL and SUPABASE_KEY
// are required; the caller is expected to abort startup when Load fails.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")
	supabaseKey := getEnv("SUPABASE_KEY", "")

	var missing []string
	if supabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if supabaseKey == "" {
		missing = append(missing, "SUPABASE_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	storage := getEnv("SESSION_STORAGE", SessionStorageDurable)
	if storage != SessionStorageDurable && storage != SessionStorageTab {
		return nil, fmt.Errorf("SESSION_STORAGE must be %q or %q, got %q", SessionStorageDurable, SessionStorageTab, storage)
	}

	idle, err := time.ParseDuration(getEnv("WORKSPACE_IDLE_TIMEOUT", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse WORKSPACE_IDLE_TIMEOUT: %w", err)
	}

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          env,
		SupabaseURL:          supabaseURL,
		SupabaseKey:          supabaseKey,
		SupabaseDBURL:        getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL:      supabaseURL + "/auth/v1/.well-known/jwks.json",
		SupabaseJWTSecret:    getEnv("SUPABASE_JWT_SECRET", ""),
		CORSOrigins:          getEnv("CORS_ORIGINS", "http://localhost:5173"),
		TablePrefix:          getEnv("TABLE_PREFIX", ""),
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionStorage:       storage,
		Locale:               getEnv("LOCALE", "pt-BR"),
		LogDir:               getEnv("LOG_DIR", ""),
		LogMaxFiles:          getEnvInt("LOG_MAX_FILES", 10),
		ConnectivitySchedule: getEnv("CONNECTIVITY_SCHEDULE", "@every 30s"),
		WorkspaceIdleTimeout: idle,
	}, nil
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return c.Environment == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
