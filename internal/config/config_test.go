package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_DATABASE", "admin.db")
	t.Setenv("AUTHZ_URL", "http://authorizer:8080")
	t.Setenv("AUTHZ_CLIENT_ID", "client")
	t.Setenv("ADMIN_EMAILS", "a@example.com, b@example.com,,")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AdminEmails)
	assert.Equal(t, "contacts", cfg.PeopleTable)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.ResolveConcurrency)
	assert.True(t, cfg.IsSQLite())
}

func TestLoadRequiresAdmins(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_EMAILS", "")

	_, err := Load()
	assert.EqualError(t, err, "ADMIN_EMAILS is required")
}

func TestLoadRequiresSigningKeyWithStorage(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BASE_URL", "https://files.example.com")

	_, err := Load()
	assert.EqualError(t, err, "STORAGE_SIGNING_KEY is required with STORAGE_BASE_URL")
}

func TestLoadReadsEnvFile(t *testing.T) {
	setRequired(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("REQUEST_TIMEOUT=3s\nRESOLVE_CONCURRENCY=0\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Cleanup(func() {
		os.Unsetenv("REQUEST_TIMEOUT")
		os.Unsetenv("RESOLVE_CONCURRENCY")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1, cfg.ResolveConcurrency)
}
