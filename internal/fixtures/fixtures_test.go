package fixtures

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/vpnadmin/internal/migrations"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/repository/sqlstore"
)

func TestLoadEmbedded(t *testing.T) {
	set, err := Load()
	require.NoError(t, err)
	require.Len(t, set.Servers, 3)
	require.Len(t, set.Configs, 3)
	require.Len(t, set.PremiumUsers, 3)
	require.NotNil(t, set.AppSettings)

	us := set.Servers[1]
	assert.Equal(t, "US", us.Country)
	assert.Equal(t, int64(124), us.OnlineUsers)
	assert.Equal(t, []string{"cloudflare", "googlecloud", "cloudfront"}, us.CDNs.Names())
	assert.Equal(t, []string{"http", "tls", "quic", "dnstt"}, us.Protocols())

	assert.Equal(t, "2023-08-25T00:45:35Z", set.PremiumUsers[0].Date)
	assert.InDelta(t, 4.2, set.AppSettings.VersionNow, 1e-9)
}

func TestDecodeRejectsUnknownField(t *testing.T) {
	_, err := Decode([]byte("servers:\n  - id: x\n    colour: red\n"))
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(db, migrations.DriverSQLite))
	store := sqlstore.NewStore(db, migrations.DriverSQLite)

	set, err := Load()
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := Seed(ctx, store, set, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 10}, first)

	second, err := Seed(ctx, store, set, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 10}, second)

	servers, err := store.Servers().List(ctx, repository.ServerFilter{})
	require.NoError(t, err)
	require.Len(t, servers, 3)
	assert.Equal(t, "BR", servers[0].Country)
	assert.Equal(t, "JP", servers[2].Country)
}
