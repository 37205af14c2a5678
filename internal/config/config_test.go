package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSupabaseSettings(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		key     string
		missing string
	}{
		{name: "both missing", missing: "SUPABASE_URL, SUPABASE_KEY"},
		{name: "url missing", key: "anon", missing: "SUPABASE_URL"},
		{name: "key missing", url: "https://x.supabase.co", missing: "SUPABASE_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SUPABASE_URL", tt.url)
			t.Setenv("SUPABASE_KEY", tt.key)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.Is(err, ErrMissingConfig))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://x.supabase.co/")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("SESSION_STORAGE", "")
	t.Setenv("WORKSPACE_IDLE_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://x.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "https://x.supabase.co/auth/v1/.well-known/jwks.json", cfg.SupabaseJWKSURL)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, SessionStorageDurable, cfg.SessionStorage)
	assert.Equal(t, "@every 30s", cfg.ConnectivitySchedule)
	assert.Equal(t, 24*time.Hour, cfg.WorkspaceIdleTimeout)
	assert.False(t, cfg.SecureCookies())
}

func TestLoad_RejectsUnknownSessionStorage(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("SESSION_STORAGE", "forever")

	_, err := Load()
	assert.Error(t, err)
}

func TestSetupLogFile_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"linkvault-2024-01-01T00-00-00.log",
		"linkvault-2024-01-02T00-00-00.log",
		"linkvault-2024-01-03T00-00-00.log",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	f, err := SetupLogFile(dir, 2)
	require.NoError(t, err)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, "linkvault-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotContains(t, files, filepath.Join(dir, "linkvault-2024-01-01T00-00-00.log"))
}
