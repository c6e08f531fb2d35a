package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("s", 32)

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GUARDIAN_AUTH__JWT_SECRET", testSecret)
	t.Setenv("GUARDIAN_AUTH__SESSION_TTL", "2h")
	t.Setenv("GUARDIAN_SERVER__ADDR", ":9090")
	t.Setenv("GUARDIAN_RATE__REQUESTS", "10")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Rate.Requests)
	assert.Equal(t, time.Minute, cfg.Rate.Window)
	assert.Equal(t, "memory", cfg.Database.Driver)
}

func TestLoadConfigLayering(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "guardian.yaml")
	yaml := `
log:
  level: debug
  format: console
auth:
  jwt_secret: ` + testSecret + `
  max_attempts: 3
database:
  driver: postgres
  dsn: postgres://localhost/guardian
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("GUARDIAN_AUTH__MAX_ATTEMPTS", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 7, cfg.Auth.MaxAttempts, "environment wins over the file")
	assert.Equal(t, "postgres", cfg.Database.Driver)

	gc := cfg.Guardian()
	assert.Equal(t, []byte(testSecret), gc.JWT.Secret)
	assert.Equal(t, 7, gc.Throttle.MaxAttempts)
	assert.True(t, gc.Throttle.Enabled)
	require.NoError(t, gc.Validate())
}

func TestLoadConfigConfigEnvVar(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: "+testSecret+"\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
}

func TestLoadConfigRejects(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("missing.yaml")
	assert.Error(t, err)

	t.Setenv("GUARDIAN_AUTH__JWT_SECRET", testSecret)
	t.Setenv("GUARDIAN_DATABASE__DRIVER", "postgres")
	_, err = LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")

	t.Setenv("GUARDIAN_DATABASE__DRIVER", "sqlite")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "auth.jwt_secret", envTransform("GUARDIAN_AUTH__JWT_SECRET"))
	assert.Equal(t, "server.addr", envTransform("GUARDIAN_SERVER__ADDR"))
	assert.Equal(t, "", envTransform(ConfigPathEnvVar))
}
