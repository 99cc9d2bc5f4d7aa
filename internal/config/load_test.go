package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
auth:
  jwt_secret: "secret"
kafka:
  brokers: ["localhost:9092"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DriverInMemory, cfg.Storage.Driver)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "trip-comments", cfg.Kafka.Topic)
	assert.Equal(t, "@every 10m", cfg.Jobs.RecountLikes)
	assert.Equal(t, 10, cfg.Redis.SubmitLockTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "from-file"
`)
	t.Setenv("TRIPCOMMENTS_AUTH_JWT_SECRET", "from-env")
	t.Setenv("TRIPCOMMENTS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_SQLDriverRequiresDSN(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
auth:
  jwt_secret: "secret"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")
}

func TestLoad_UnknownDriver(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: cassandra
auth:
  jwt_secret: "secret"
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":8080\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}
