package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/vpnadmin/internal/bootstrap"
	"github.com/creamcroissant/vpnadmin/internal/config"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/repository/sqlstore"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	db, store, err := bootstrap.OpenStore(config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "store.db")}, true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store
}

func boolPtr(b bool) *bool { return &b }

func TestServerRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Servers()

	cdns := repository.CDNMap{}
	cdns.Set("cloudfront", []string{"d1.cloudfront.net"})
	cdns.Set("cloudflare", []string{"a.example", "b.example"})
	cdns.Set("fastly", nil)

	in := &repository.Server{
		ID: "srv-1", CloudFlareDomain: "br.example", Country: "BR", City: "São Paulo", IPv4: "10.0.0.1",
		PortHTTP: 80, PortTLS: 443, PortDNSTT: 53, TLS: true, QUIC: true, Capacity: 100, CDNs: cdns,
		CreatedAt: 10, UpdatedAt: 10,
	}
	require.NoError(t, repo.Create(ctx, in))
	assert.ErrorIs(t, repo.Create(ctx, in), repository.ErrDuplicate)

	got, err := repo.FindByID(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, in, got)
	// 键顺序在 JSON 列里保留下来
	assert.Equal(t, []string{"cloudfront", "cloudflare", "fastly"}, got.CDNs.Names())

	got.Capacity = 250
	got.UpdatedAt = 20
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.FindByID(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), again.Capacity)

	require.NoError(t, repo.TouchPing(ctx, "srv-1", 99))
	again, err = repo.FindByID(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(99), again.LastPing)

	assert.ErrorIs(t, repo.Update(ctx, &repository.Server{ID: "missing"}), repository.ErrNotFound)
	assert.ErrorIs(t, repo.TouchPing(ctx, "missing", 1), repository.ErrNotFound)
	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	deleted, err := repo.Delete(ctx, "srv-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, "srv-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestServerRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Servers()
	for _, s := range []*repository.Server{
		{ID: "a", Country: "US", Premium: true, TLS: true, HTTP: true},
		{ID: "b", Country: "us", TLS: true},
		{ID: "c", Country: "JP", Premium: true, QUIC: true},
	} {
		require.NoError(t, repo.Create(ctx, s))
	}

	ids := func(list []*repository.Server) []string {
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, s.ID)
		}
		return out
	}

	all, err := repo.List(ctx, repository.ServerFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(all))

	us, err := repo.List(ctx, repository.ServerFilter{Country: "Us"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(us))

	premium, err := repo.List(ctx, repository.ServerFilter{Premium: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(premium))

	tlsHTTP, err := repo.List(ctx, repository.ServerFilter{Protocols: []string{"tls", "HTTP"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(tlsHTTP))

	_, err = repo.List(ctx, repository.ServerFilter{Protocols: []string{"wireguard"}})
	assert.Error(t, err)
}

func TestConfigRepositoryCounters(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Configs()
	require.NoError(t, repo.Create(ctx, &repository.Config{ID: "c1", Name: "edge", Host: "a;b", Type: "ssh", Operator: "Vivo"}))
	require.NoError(t, repo.Create(ctx, &repository.Config{ID: "c2", Name: "core", Type: "vmess", ForPremium: true}))

	require.NoError(t, repo.IncrementDownloads(ctx, "c1"))
	require.NoError(t, repo.IncrementDownloads(ctx, "c1"))
	require.NoError(t, repo.Vote(ctx, "c1", true))
	require.NoError(t, repo.Vote(ctx, "c1", false))
	require.NoError(t, repo.Vote(ctx, "c1", false))
	assert.ErrorIs(t, repo.Vote(ctx, "nope", true), repository.ErrNotFound)
	assert.ErrorIs(t, repo.IncrementDownloads(ctx, "nope"), repository.ErrNotFound)

	c, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Downloaded)
	assert.Equal(t, int64(1), c.VotesPositive)
	assert.Equal(t, int64(2), c.VotesNegative)
	assert.Equal(t, "a;b", c.Host)

	byOperator, err := repo.List(ctx, repository.ConfigFilter{Operator: "vivo"})
	require.NoError(t, err)
	require.Len(t, byOperator, 1)
	assert.Equal(t, "c1", byOperator[0].ID)

	premium, err := repo.List(ctx, repository.ConfigFilter{ForPremium: boolPtr(true), Type: "VMESS"})
	require.NoError(t, err)
	require.Len(t, premium, 1)
	assert.Equal(t, "c2", premium[0].ID)
}

func TestPremiumUserRepositoryLookups(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).PremiumUsers()
	for _, u := range []*repository.PremiumUser{
		{ID: "u1", Email: "A@example.com", DeviceID: "dev", DateStart: 100, DateEnd: 200},
		{ID: "u2", Email: "b@example.com", DeviceID: "dev", DateStart: 150, DateEnd: 900},
		{ID: "u3", Email: "c@example.com", DeviceID: "other", DateEnd: 300, Expired: true},
	} {
		require.NoError(t, repo.Create(ctx, u))
	}

	latest, err := repo.FindByDeviceID(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, "u2", latest.ID)
	_, err = repo.FindByDeviceID(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	lapsed, err := repo.ListLapsed(ctx, 500)
	require.NoError(t, err)
	require.Len(t, lapsed, 1)
	assert.Equal(t, "u1", lapsed[0].ID)

	byEmail, err := repo.List(ctx, repository.PremiumUserFilter{Email: "a@EXAMPLE.com"})
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "u1", byEmail[0].ID)

	expired, err := repo.List(ctx, repository.PremiumUserFilter{Expired: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "u3", expired[0].ID)
}

func TestAdLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).AdLogs()
	for _, cb := range []*repository.AdCallback{
		{UserID: "u1", Timestamp: 1_000, AdType: "video", Status: "completed"},
		{UserID: "u1", Timestamp: 3_000, AdType: "standard", Status: "started"},
		{UserID: "u2", Timestamp: 2_000, AdType: "video", Status: "completed"},
	} {
		require.NoError(t, repo.InsertCallback(ctx, cb))
		assert.NotZero(t, cb.ID)
	}

	list, err := repo.ListCallbacks(ctx, repository.AdCallbackFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3_000, 2_000, 1_000}, []int64{list[0].Timestamp, list[1].Timestamp, list[2].Timestamp})

	window, err := repo.ListCallbacks(ctx, repository.AdCallbackFilter{FromMillis: 1_500, ToMillis: 3_000, AdType: "video"})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "u2", window[0].UserID)

	limited, err := repo.ListCallbacks(ctx, repository.AdCallbackFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byStatus, err := repo.CountBy(ctx, "status")
	require.NoError(t, err)
	assert.Equal(t, []repository.AdCallbackCount{{Key: "completed", Count: 2}, {Key: "started", Count: 1}}, byStatus)
	_, err = repo.CountBy(ctx, "user_id; DROP TABLE ad_callbacks")
	assert.Error(t, err)

	unique, err := repo.CountUniqueUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unique)

	recent, err := repo.CountCallbacks(ctx, 2_000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), recent)

	removed, err := repo.DeleteCallbacksBefore(ctx, 2_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.GetStatus(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.BumpStatus(ctx, "u1", repository.StatusBump{SeenAt: 5})
	require.NoError(t, err)
	_, err = repo.BumpStatus(ctx, "u1", repository.StatusBump{SeenAt: 6, Completed: true, StepMillis: 10, CapAt: 100, FirstValidUntil: 16})
	require.NoError(t, err)
	st, err := repo.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, &repository.UserAdStatus{UserID: "u1", ValidUntil: 16, AdViews: 1, LastSeen: 6}, st)

	statuses, err := repo.ListStatuses(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, 1)
}

func TestBumpStatusFoldsInOneStatement(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).AdLogs()
	const hour = int64(3_600_000)

	st, err := repo.BumpStatus(ctx, "u1", repository.StatusBump{SeenAt: 100})
	require.NoError(t, err)
	assert.Equal(t, &repository.UserAdStatus{UserID: "u1", LastSeen: 100}, st)

	bump := repository.StatusBump{SeenAt: 200, Completed: true, StepMillis: hour, CapAt: 200 + 3*hour, FirstValidUntil: 200 + hour}
	st, err = repo.BumpStatus(ctx, "u1", bump)
	require.NoError(t, err)
	assert.Equal(t, &repository.UserAdStatus{UserID: "u1", ValidUntil: 200 + hour, AdViews: 1, LastSeen: 200}, st)

	for i := 0; i < 5; i++ {
		st, err = repo.BumpStatus(ctx, "u1", bump)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(6), st.AdViews)
	assert.Equal(t, 200+3*hour, st.ValidUntil, "capped")

	st, err = repo.BumpStatus(ctx, "u2", bump)
	require.NoError(t, err)
	assert.Equal(t, &repository.UserAdStatus{UserID: "u2", ValidUntil: 200 + hour, AdViews: 1, LastSeen: 200}, st)

	stored, err := repo.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), stored.AdViews)
}

func TestAppSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).AppSettings()

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	in := &repository.AppSettings{VersionNow: 1.5, BuildNow: 7, AppBg: "#000", TimeMaxHour: 24, TimeStepHour: 2, UpdatedAt: 3}
	require.NoError(t, repo.Save(ctx, in))
	in.MaintenanceMode = true
	require.NoError(t, repo.Save(ctx, in))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	require.NoError(t, repo.AppendVersion(ctx, &repository.AppVersion{VersionNow: 1.0, BuildNow: 1, CreatedAt: 1}))
	require.NoError(t, repo.AppendVersion(ctx, &repository.AppVersion{VersionNow: 1.5, BuildNow: 7, CreatedAt: 2}))
	versions, err := repo.ListVersions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 7, versions[0].BuildNow)
}

func TestAppSettingsStampTouchesOneColumn(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).AppSettings()

	assert.ErrorIs(t, repo.Stamp(ctx, "servers_updated", "2024-05-20", 9), repository.ErrNotFound)
	assert.Error(t, repo.Stamp(ctx, "app_bg", "x", 9))

	seeded, err := repo.Seed(ctx, &repository.AppSettings{AppBg: "#111", TimeMaxHour: 24})
	require.NoError(t, err)
	assert.True(t, seeded)
	seeded, err = repo.Seed(ctx, &repository.AppSettings{AppBg: "#222"})
	require.NoError(t, err)
	assert.False(t, seeded, "existing row wins")

	require.NoError(t, repo.Stamp(ctx, "configs_updated", "2024-05-21", 10))
	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &repository.AppSettings{AppBg: "#111", TimeMaxHour: 24, ConfigsUpdated: "2024-05-21", UpdatedAt: 10}, got)
}

func TestSettingRepositoryInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Settings()

	ok, err := repo.InsertIfAbsent(ctx, &repository.Setting{Key: "k", Value: "first", Category: "auth", UpdatedAt: 1})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.InsertIfAbsent(ctx, &repository.Setting{Key: "k", Value: "second", Category: "auth", UpdatedAt: 2})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Value)
}

func TestSettingRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Settings()

	_, err := repo.Get(ctx, "jwt_signing_key")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &repository.Setting{Key: "k", Value: "v1", Category: "auth", UpdatedAt: 1}))
	require.NoError(t, repo.Upsert(ctx, &repository.Setting{Key: "k", Value: "v2", Category: "auth", UpdatedAt: 2}))
	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Value)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
