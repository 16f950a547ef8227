package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "redis://localhost:6379", cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxBytes)
	assert.ElementsMatch(t, DefaultAllowedUploadTypes, cfg.Uploads.AllowedTypes)
	assert.Empty(t, cfg.Admin.Tokens, "no admin token is configured by default")
	assert.False(t, cfg.SpacesConfigured())
}

func TestLoadConfigFromYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("SWIPR_TEST_REDIS", "redis://cache:6380/2")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
database:
  url: ${SWIPR_TEST_REDIS}
  key_prefix: test
admin:
  tokens: ["alpha", "beta"]
rate_limit:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis://cache:6380/2", cfg.Database.URL)
	assert.Equal(t, "test", cfg.Database.KeyPrefix)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Admin.Tokens)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3001")
	t.Setenv("REDIS_URL", "redis://ignored:6379")
	t.Setenv("DATABASE_URL", "redis://primary:6379")
	t.Setenv("ADMIN_TOKEN", " secret-token ")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("BUCKET_ACCESS_KEY_ID", "key")
	t.Setenv("BUCKET_ACCESS_KEY_SECRET", "secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "redis://primary:6379", cfg.Database.URL)
	assert.Contains(t, cfg.Admin.Tokens, "secret-token")
	assert.Equal(t, int64(1024), cfg.Uploads.MaxBytes)
	assert.True(t, cfg.SpacesConfigured())
	assert.Equal(t, "0.0.0.0:3001", cfg.Address())
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigDropsUnexpandedTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
admin:
  tokens: ["${SWIPR_TEST_UNSET_TOKEN}", " ", "real"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, cfg.Admin.Tokens)
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "swipr", cfg.Database.KeyPrefix)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.GRPC.Enabled)
}
