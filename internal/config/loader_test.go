package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.Cache.StatsTTL)
	assert.Equal(t, 64, cfg.WS.SendBuffer)
	assert.Equal(t, "vpnadmin", cfg.Metrics.Namespace)
	assert.NotEmpty(t, cfg.Client.SessionPath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
  cors_origins: ["https://admin.example"]
database:
  driver: postgres
  dsn: postgres://file/db
adlogs:
  retention: 48h
  retention_schedule: "-"
rate_limit:
  limit: 5
  window: 10s
`)
	t.Setenv("VPNADMIN_HTTP_ADDR", ":9100")
	t.Setenv("DATABASE_URL", "postgres://env/db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://admin.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://env/db", cfg.DB.DSN)
	assert.Equal(t, 48*time.Hour, cfg.AdLogs.Retention)
	assert.Equal(t, "-", cfg.AdLogs.RetentionSchedule)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("VPNADMIN_DATABASE_DSN", "")

	_, err := Load(writeConfig(t, "database:\n  driver: mysql\n"))
	assert.ErrorContains(t, err, `unsupported database.driver "mysql"`)

	_, err = Load(writeConfig(t, "database:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "database.dsn is required")

	_, err = Load(writeConfig(t, "ws:\n  send_buffer: 0\n"))
	assert.ErrorContains(t, err, "ws.send_buffer")
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestBindLegacyEnvRespectsRealEnv(t *testing.T) {
	source := viper.New()
	source.Set("LOG_LEVEL", "warn")
	source.Set("API_URL", "https://api.example")
	t.Setenv("VPNADMIN_CLIENT_SERVER_URL", "https://real.example")

	target := viper.New()
	bindLegacyEnv(target, source)

	assert.Equal(t, "warn", target.GetString("log.level"))
	assert.False(t, target.IsSet("client.server_url"))
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LogConfig{Level: "debug"}.SlogLevel().String())
	assert.Equal(t, "WARN", LogConfig{Level: "warning"}.SlogLevel().String())
	assert.Equal(t, "INFO", LogConfig{Level: "bogus"}.SlogLevel().String())
}
