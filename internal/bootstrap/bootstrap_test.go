package bootstrap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/vpnadmin/internal/config"
	"github.com/creamcroissant/vpnadmin/internal/migrations"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/repository/sqlstore"
	"github.com/creamcroissant/vpnadmin/internal/support/logging"
)

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	db, driver, err := OpenDatabase(config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(db, driver))
	return sqlstore.NewStore(db, driver)
}

func TestResolveJWTSigningKeyPrefersConfig(t *testing.T) {
	key, source, err := ResolveJWTSigningKey(context.Background(), nil, " configured ", time.Now)
	require.NoError(t, err)
	assert.Equal(t, "configured", key)
	assert.Equal(t, JWTSigningKeySourceConfig, source)
}

func TestResolveJWTSigningKeyGeneratesOnceThenReuses(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	deps := jwtSigningKeyDeps{now: time.Now, randReader: bytes.NewReader(bytes.Repeat([]byte{0xab}, 32))}

	first, source, err := resolveJWTSigningKey(ctx, store.Settings(), "change-me", deps)
	require.NoError(t, err)
	assert.Equal(t, JWTSigningKeySourceGenerated, source)
	assert.Len(t, first, 64)

	second, source, err := ResolveJWTSigningKey(ctx, store.Settings(), "", time.Now)
	require.NoError(t, err)
	assert.Equal(t, JWTSigningKeySourceSettings, source)
	assert.Equal(t, first, second)
}

// lateReader 模拟另一个实例：在本实例读完设置、生成密钥之前抢先写入。
type lateReader struct {
	repository.SettingRepository
	once *sync.Once
	key  string
}

func (r lateReader) Get(ctx context.Context, key string) (*repository.Setting, error) {
	got, err := r.SettingRepository.Get(ctx, key)
	r.once.Do(func() {
		_, _ = r.SettingRepository.InsertIfAbsent(ctx, &repository.Setting{Key: key, Value: r.key, Category: "security"})
	})
	return got, err
}

func TestResolveJWTSigningKeyKeepsKeyWrittenFirst(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	other := strings.Repeat("cd", 32)
	settings := lateReader{SettingRepository: store.Settings(), once: &sync.Once{}, key: other}
	deps := jwtSigningKeyDeps{now: time.Now, randReader: bytes.NewReader(bytes.Repeat([]byte{0xab}, 32))}

	key, source, err := resolveJWTSigningKey(ctx, settings, "change-me", deps)
	require.NoError(t, err)
	assert.Equal(t, other, key)
	assert.Equal(t, JWTSigningKeySourceSettings, source)

	stored, err := store.Settings().Get(ctx, jwtSigningKeySettingKey)
	require.NoError(t, err)
	assert.Equal(t, other, stored.Value)
}

func TestResolveJWTSigningKeyFillsBlankValue(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.Settings().Upsert(ctx, &repository.Setting{Key: jwtSigningKeySettingKey, Value: "  ", Category: "security"}))
	deps := jwtSigningKeyDeps{now: time.Now, randReader: bytes.NewReader(bytes.Repeat([]byte{0xab}, 32))}

	key, source, err := resolveJWTSigningKey(ctx, store.Settings(), "", deps)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 32), key)
	assert.Equal(t, JWTSigningKeySourceGenerated, source)
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	_, _, err := OpenDatabase(config.DBConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestBuildInfrastructureNeedsResolvedKey(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{Issuer: "vpnadmin", TokenTTL: time.Hour}}
	_, err := BuildInfrastructure(cfg, "change-me", logging.Discard())
	assert.Error(t, err)

	infra, err := BuildInfrastructure(cfg, "secret", logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, infra.Token)
	assert.NotNil(t, infra.RateLimiter)
}

func TestNewAppWiresRouterAndJobs(t *testing.T) {
	cfg := &config.Config{
		DB:     config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "app.db")},
		Auth:   config.AuthConfig{Issuer: "vpnadmin", TokenTTL: time.Hour},
		AdLogs: config.AdLogsConfig{Retention: time.Hour, RetentionSchedule: "@every 1h", ExpiryReportSchedule: "-"},
	}
	app, err := NewApp(context.Background(), cfg, logging.Discard(), AppOptions{Version: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	t.Cleanup(app.Hub.Close)

	assert.Equal(t, 1, app.Scheduler.Entries())

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	issued, err := app.Sessions.Issue(context.Background(), "ops", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/app-settings", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
