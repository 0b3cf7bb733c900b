package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HAVEN_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Database.Retries)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "haven.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  shutdown_timeout: 3s
database:
  driver: sqlite
  sqlite_path: /tmp/journal.db
auth:
  jwt_secret: from-yaml
log:
  level: debug
`), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://haven.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/journal.db", cfg.Database.SQLitePath)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"http://localhost:5173", "https://haven.example"}, cfg.Server.AllowedOrigins)
}

func TestDotEnvIsRead(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_DRIVER=memory\nPORT=7070\n"), 0o600))
	t.Setenv("HAVEN_CONFIG", "")
	// godotenv never overrides variables that already exist, so make sure
	// these start out unset and are cleaned up afterwards.
	for _, key := range []string{"DB_DRIVER", "PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HAVEN_CONFIG", "")

	t.Setenv("DB_DRIVER", "mongo")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_CONNECT_RETRIES", "zero")
	_, err = Load("")
	assert.Error(t, err)
}

func TestPostgresURL(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: "5432", Name: "haven", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/haven?sslmode=disable", d.PostgresURL())

	d.URL = "postgres://override"
	assert.Equal(t, "postgres://override", d.PostgresURL())
}
