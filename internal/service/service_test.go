package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/vpnadmin/internal/auth/token"
	"github.com/creamcroissant/vpnadmin/internal/cache"
	"github.com/creamcroissant/vpnadmin/internal/fixtures"
	"github.com/creamcroissant/vpnadmin/internal/migrations"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/repository/sqlstore"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(db, migrations.DriverSQLite))
	return sqlstore.NewStore(db, migrations.DriverSQLite)
}

func seededDeps(t *testing.T) Deps {
	t.Helper()
	store := newTestStore(t)
	set, err := fixtures.Load()
	require.NoError(t, err)
	_, err = fixtures.Seed(context.Background(), store, set, testNow)
	require.NoError(t, err)
	return Deps{Store: store, Now: func() time.Time { return testNow }}
}

func jsonEdit[F any](body string) func(*F) error {
	return func(f *F) error { return json.Unmarshal([]byte(body), f) }
}

func TestFixtureScenarioFilterAndSort(t *testing.T) {
	ctx := context.Background()
	svc := NewServerService(seededDeps(t))

	matches, err := svc.List(ctx, repository.ServerFilter{}, ListQuery{Query: "us"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "US", matches[0].Country)

	sorted, err := svc.List(ctx, repository.ServerFilter{}, ListQuery{Sort: SortState{Key: "onlineUsers", Direction: Descending}})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	got := []int64{sorted[0].OnlineUsers, sorted[1].OnlineUsers, sorted[2].OnlineUsers}
	assert.Equal(t, []int64{124, 87, 31}, got)
	assert.Equal(t, []string{"US", "JP", "BR"}, []string{sorted[0].Country, sorted[1].Country, sorted[2].Country})
}

func TestServerListNarrowingFilters(t *testing.T) {
	ctx := context.Background()
	svc := NewServerService(seededDeps(t))

	premium := true
	list, err := svc.List(ctx, repository.ServerFilter{Premium: &premium}, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.List(ctx, repository.ServerFilter{Protocols: []string{"quic", "dnstt"}}, ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "US", list[0].Country)

	_, err = svc.List(ctx, repository.ServerFilter{Protocols: []string{"wireguard"}}, ListQuery{})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestCreateServerThenFilterFindsZeroedCounters(t *testing.T) {
	ctx := context.Background()
	deps := seededDeps(t)
	svc := NewServerService(deps)

	form := validServerForm()
	form.CloudFlareDomain = "server-de1.vpnapp.cloud"
	form.Country = "DE"
	form.City = "Berlin"
	form.State = "BE"
	res, err := svc.Create(ctx, form)
	require.NoError(t, err)
	require.NotNil(t, res.Entity)
	assert.NotEmpty(t, res.Entity.ID)
	assert.Equal(t, notice("server.created", "server-de1.vpnapp.cloud"), res.Notice)

	found, err := svc.List(ctx, repository.ServerFilter{}, ListQuery{Query: "server-de1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	srv := found[0]
	assert.Equal(t, "Berlin", srv.City)
	assert.Equal(t, "deflag.png", srv.Flag)
	assert.Equal(t, testNow.Unix(), srv.LastPing)
	assert.Zero(t, srv.OnlineUsers)
	assert.Zero(t, srv.UsersAdsed)
	assert.Zero(t, srv.Usage)
	assert.Zero(t, srv.CDNNumber)

	all, err := svc.List(ctx, repository.ServerFilter{}, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, "DE", all[len(all)-1].Country, "new entries append at the end")

	settings, err := deps.Store.AppSettings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-20", settings.ServersUpdated)
	assert.Equal(t, "2023-11-20", settings.ConfigsUpdated)
}

// racingSettings 在刷新日期戳读写设置的第一刻插入一次别人的保存。
type racingSettings struct {
	repository.AppSettingsRepository
	once  *sync.Once
	write func()
}

func (r racingSettings) Get(ctx context.Context) (*repository.AppSettings, error) {
	got, err := r.AppSettingsRepository.Get(ctx)
	r.once.Do(r.write)
	return got, err
}

func (r racingSettings) Stamp(ctx context.Context, column, day string, updatedAt int64) error {
	r.once.Do(r.write)
	return r.AppSettingsRepository.Stamp(ctx, column, day, updatedAt)
}

type racingStore struct {
	repository.Store
	settings repository.AppSettingsRepository
}

func (s racingStore) AppSettings() repository.AppSettingsRepository { return s.settings }

func TestRefreshStampKeepsConcurrentSettingsSave(t *testing.T) {
	ctx := context.Background()
	deps := seededDeps(t)
	base := deps.Store
	deps.Store = racingStore{Store: base, settings: racingSettings{
		AppSettingsRepository: base.AppSettings(),
		once:                  &sync.Once{},
		write: func() {
			current, err := base.AppSettings().Get(ctx)
			require.NoError(t, err)
			current.AppBg = "#00ff00"
			current.MaintenanceMode = true
			require.NoError(t, base.AppSettings().Save(ctx, current))
		},
	}}

	form := validServerForm()
	form.CloudFlareDomain = "server-fr1.vpnapp.cloud"
	_, err := NewServerService(deps).Create(ctx, form)
	require.NoError(t, err)

	settings, err := base.AppSettings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", settings.AppBg)
	assert.True(t, settings.MaintenanceMode)
	assert.Equal(t, "2024-05-20", settings.ServersUpdated)
}

func TestRefreshStampSeedsDefaultsOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	deps := Deps{Store: store, Now: func() time.Time { return testNow }}

	_, err := NewServerService(deps).Create(ctx, validServerForm())
	require.NoError(t, err)

	settings, err := store.AppSettings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-20", settings.ServersUpdated)
	assert.Empty(t, settings.ConfigsUpdated)
	assert.Equal(t, 24, settings.TimeMaxHour)
	assert.Equal(t, "gemini-pro", settings.AgentModel)
}

func TestCreateServerValidationFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc := NewServerService(seededDeps(t))
	_, err := svc.Create(ctx, DefaultServerForm())
	_, ok := AsValidationError(err)
	require.True(t, ok)
	all, err := svc.List(ctx, repository.ServerFilter{}, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateMergesOverStoredConfig(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Configs().Create(ctx, &repository.Config{
		ID: "1", Name: "A", Host: "1.1.1.1", Type: "ssh", Operator: "vpnapp", VotesPositive: 10,
	}))
	svc := NewConfigService(Deps{Store: store, Now: func() time.Time { return testNow }})

	res, err := svc.Update(ctx, "1", jsonEdit[ConfigForm](`{"name":"B"}`))
	require.NoError(t, err)
	assert.Equal(t, "1", res.Entity.ID)
	assert.Equal(t, "B", res.Entity.Name)
	assert.Equal(t, int64(10), res.Entity.VotesPositive)

	stored, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Name)
	assert.Equal(t, "1.1.1.1", stored.Host)
	assert.Equal(t, int64(10), stored.VotesPositive)
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	deps := seededDeps(t)
	_, err := NewConfigService(deps).Update(ctx, "missing", jsonEdit[ConfigForm](`{"name":"B"}`))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewServerService(deps).Update(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewPremiumUserService(deps).Update(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateInvalidEditIsRejected(t *testing.T) {
	ctx := context.Background()
	svc := NewServerService(seededDeps(t))
	_, err := svc.Update(ctx, "6399bbfaad77622b6661a086", jsonEdit[ServerForm](`{"capacity":"0"}`))
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "capacity")

	_, err = svc.Update(ctx, "6399bbfaad77622b6661a086", jsonEdit[ServerForm](`{"capacity":`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteAbsentIDIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := NewPremiumUserService(seededDeps(t))

	res, err := svc.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, res.Deleted)

	users, err := svc.List(ctx, repository.PremiumUserFilter{}, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, users, 3)

	res, err = svc.Delete(ctx, "64e7f9b28bf3efeef5b5d9a5")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Equal(t, notice("premium_user.deleted", "user1@example.com"), res.Notice)
	users, err = svc.List(ctx, repository.PremiumUserFilter{}, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestPingStampsLastPing(t *testing.T) {
	ctx := context.Background()
	svc := NewServerService(seededDeps(t))
	res, err := svc.Ping(ctx, "6399bbfaad77622b6661a087")
	require.NoError(t, err)
	assert.Equal(t, testNow.Unix(), res.Entity.LastPing)

	_, err = svc.Ping(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerLoads(t *testing.T) {
	loads, err := NewServerService(seededDeps(t)).Loads(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 3)
	us := loads[1]
	assert.Equal(t, BandGreen, us.Band)
	assert.InDelta(t, 0.155, us.Utilization, 1e-9)
	assert.Equal(t, []string{"http", "tls", "quic", "dnstt"}, us.Protocols)
	assert.Equal(t, 3, us.CDNDomains)
	assert.Equal(t, 0, loads[2].CDNDomains)
}

func TestStatsAreCachedAndInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	deps := seededDeps(t)
	deps.Cache = cache.NewStore(cache.Options{})
	deps.StatsTTL = time.Minute
	svc := NewServerService(deps)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ServerStats{TotalServers: 3, ActiveServers: 3, PremiumServers: 2, TotalCapacity: 1800, TotalOnlineUsers: 242}, st)

	// a write behind the service's back is invisible until the cache entry goes away
	_, err = deps.Store.Servers().Delete(ctx, "6399bbfaad77622b6661a085")
	require.NoError(t, err)
	st, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalServers)

	_, err = svc.Delete(ctx, "6399bbfaad77622b6661a087")
	require.NoError(t, err)
	st, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalServers)
}

func TestConfigCountersAndStats(t *testing.T) {
	ctx := context.Background()
	svc := NewConfigService(seededDeps(t))
	id := "66b3f5ee2b9bf13db95abdcc"

	res, err := svc.Download(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1257), res.Entity.Downloaded)

	res, err = svc.Vote(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, int64(322), res.Entity.VotesPositive)
	res, err = svc.Vote(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, int64(13), res.Entity.VotesNegative)

	_, err = svc.Vote(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ConfigStats{TotalConfigs: 3, TotalDownloads: 6923, PositiveVotes: 2024, NegativeVotes: 126, PremiumConfigs: 2}, st)
}

func TestConfigFormPrefill(t *testing.T) {
	ctx := context.Background()
	svc := NewConfigService(seededDeps(t))
	blank, err := svc.Form(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigForm(), blank)

	form, err := svc.Form(ctx, "66b3f5ee2b9bf13db95abdcd")
	require.NoError(t, err)
	assert.Equal(t, "GAMING BOOST", form.Name)
	assert.Equal(t, "2", form.TestPriority)
	assert.Equal(t, []string{"185.72.49.13", "185.72.49.14"}, SplitHosts(form.Host))

	_, err = svc.Form(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPremiumVerify(t *testing.T) {
	ctx := context.Background()
	deps := seededDeps(t)
	deps.Now = func() time.Time { return time.Unix(1700000000, 0) }
	svc := NewPremiumUserService(deps)

	v, err := svc.Verify(ctx, "E00416968202308250045NOvc52xxLFN")
	require.NoError(t, err)
	assert.True(t, v.Found)
	assert.True(t, v.Premium)
	assert.Equal(t, int64(1708821938), v.ValidUntil)

	v, err = svc.Verify(ctx, "E00416968202308250047NOvc52xxABC")
	require.NoError(t, err)
	assert.True(t, v.Found)
	assert.False(t, v.Premium)
	assert.True(t, v.Expired)
	assert.True(t, v.Suspicious)

	v, err = svc.Verify(ctx, "unknown-device")
	require.NoError(t, err)
	assert.False(t, v.Found)
	assert.False(t, v.Premium)

	_, err = svc.Verify(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPremiumStatsAndLapsed(t *testing.T) {
	ctx := context.Background()
	svc := NewPremiumUserService(seededDeps(t))

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalPremiumUsers)
	assert.Equal(t, 2, st.ActiveUsers)
	assert.Equal(t, 1, st.ExpiredUsers)
	assert.Equal(t, 1, st.SuspiciousUsers)
	assert.InDelta(t, 0.21, st.RevenueTotal, 1e-9)

	// user1 ended in February 2024 but is not flagged; expired stays a manual flag
	lapsed, err := svc.Lapsed(ctx)
	require.NoError(t, err)
	require.Len(t, lapsed, 1)
	assert.False(t, lapsed[0].Expired)
	assert.Equal(t, "user1@example.com", lapsed[0].Email)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []AdEvent
}

func (p *capturePublisher) Publish(event AdEvent) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func TestAdCallbackExtendsValidity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	pub := &capturePublisher{}
	metrics := NewAdLogMetrics(prometheus.NewRegistry(), "test")
	svc := NewAdLogService(Deps{Store: store, Now: func() time.Time { return testNow }}, AdLogOptions{Publisher: pub, Metrics: metrics})
	nowMs := testNow.UnixMilli()
	hour := time.Hour.Milliseconds()

	res, err := svc.Record(ctx, AdCallbackInput{UserID: "<b>u1</b>", AdType: "video", Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "u1", res.Callback.UserID)
	assert.Equal(t, nowMs, res.Callback.Timestamp)
	assert.Equal(t, int64(1), res.Status.AdViews)
	assert.Equal(t, nowMs+hour, res.Status.ValidUntil)
	assert.Equal(t, notice("ad_log.extended", "u1"), res.Notice)

	for i := 0; i < 30; i++ {
		_, err = svc.Record(ctx, AdCallbackInput{UserID: "u1", AdType: "video", Status: "completed"})
		require.NoError(t, err)
	}
	status, err := svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(31), status.AdViews)
	assert.Equal(t, nowMs+24*hour, status.ValidUntil, "capped by timeMaxHour")

	res, err = svc.Record(ctx, AdCallbackInput{UserID: "u1", AdType: "video", Status: "started", Timestamp: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(31), res.Status.AdViews)
	assert.Equal(t, int64(42), res.Callback.Timestamp)
	assert.Equal(t, notice("ad_log.recorded", "u1"), res.Notice)

	require.Len(t, pub.events, 32)
	assert.Equal(t, AdEvent{UserID: "u1", AdType: "video", Status: "completed", Timestamp: nowMs}, pub.events[0])
	assert.InDelta(t, 31, testutil.ToFloat64(metrics.callbacks.WithLabelValues("video", "completed")), 0)
}

func TestConcurrentCompletedCallbacksAllCount(t *testing.T) {
	ctx := context.Background()
	svc := NewAdLogService(Deps{Store: newTestStore(t), Now: func() time.Time { return testNow }}, AdLogOptions{})
	const n = 120

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Record(ctx, AdCallbackInput{UserID: "u-burst", AdType: "video", Status: "completed"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	status, err := svc.Status(ctx, "u-burst")
	require.NoError(t, err)
	assert.Equal(t, int64(n), status.AdViews)
	assert.Equal(t, testNow.UnixMilli()+24*time.Hour.Milliseconds(), status.ValidUntil)
}

func TestAdCallbackValidation(t *testing.T) {
	svc := NewAdLogService(Deps{Store: newTestStore(t)}, AdLogOptions{})
	_, err := svc.Record(context.Background(), AdCallbackInput{UserID: " ", AdType: "banner", Status: "done"})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "userId")
	assert.Contains(t, ve.Fields, "adType")
	assert.Contains(t, ve.Fields, "status")
}

func TestAdCallbackListingStatsAndPurge(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewAdLogService(Deps{Store: store, Now: func() time.Time { return testNow }}, AdLogOptions{DefaultLimit: 2})
	old := testNow.Add(-48 * time.Hour).UnixMilli()
	inputs := []AdCallbackInput{
		{UserID: "u1", AdType: "video", Status: "completed", Timestamp: old},
		{UserID: "u1", AdType: "standard", Status: "started"},
		{UserID: "u2", AdType: "video", Status: "error"},
	}
	for _, in := range inputs {
		_, err := svc.Record(ctx, in)
		require.NoError(t, err)
	}

	list, err := svc.Callbacks(ctx, repository.AdCallbackFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2, "default limit applies")

	list, err = svc.Callbacks(ctx, repository.AdCallbackFilter{UserID: "u1", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.Callbacks(ctx, repository.AdCallbackFilter{FromMillis: 10, ToMillis: 5})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalCallbacks)
	assert.Equal(t, int64(2), st.Last24h)
	assert.Equal(t, int64(2), st.UniqueUsers)
	assert.Equal(t, map[string]int64{"completed": 1, "started": 1, "error": 1}, st.ByStatus)
	assert.Equal(t, map[string]int64{"video": 2, "standard": 1}, st.ByAdType)

	removed, err := svc.Purge(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	statuses, err := svc.Statuses(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, 2, "purge keeps user status rows")
}

func TestAppSettingsLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewAppSettingsService(seededDeps(t))

	current, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 4.2, current.VersionNow, 1e-9)

	res, err := svc.Update(ctx, jsonEdit[AppSettingsForm](`{"versionNow":"4.3","buildNow":"104"}`))
	require.NoError(t, err)
	assert.Equal(t, 104, res.Entity.BuildNow)
	assert.Equal(t, notice("app_settings.updated"), res.Notice)

	_, err = svc.Update(ctx, jsonEdit[AppSettingsForm](`{"appBg":"#000000"}`))
	require.NoError(t, err)

	versions, err := svc.Versions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, versions, 2, "seed row plus one version bump")
	assert.Equal(t, 104, versions[0].BuildNow)

	reset, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, reset.Entity.VersionNow, 1e-9)
	assert.Equal(t, "2023-11-15", reset.Entity.ServersUpdated)
	assert.Empty(t, reset.Entity.AppBg)

	versions, err = svc.Versions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, versions, 3)
}

func TestAppSettingsDefaultsBeforeFirstSave(t *testing.T) {
	svc := NewAppSettingsService(Deps{Store: newTestStore(t)})
	form, err := svc.Form(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AppSettingsToForm(&repository.AppSettings{VersionNow: 1, BuildNow: 1, Default: true, TimeMaxHour: 24, TimeStepHour: 1, AgentModel: "gemini-pro"}), form)
}

func TestSessionIssueVerifyRevoke(t *testing.T) {
	ctx := context.Background()
	mgr, err := token.NewManager(token.Options{SigningKey: []byte("test-secret"), Issuer: "vpnadmin", TTL: time.Hour})
	require.NoError(t, err)
	svc := NewSessionService(mgr, cache.NewStore(cache.Options{}), nil)

	issued, err := svc.Issue(ctx, " alice ", 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", issued.Claims.Subject)

	claims, err := svc.Verify(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.Claims.TokenID, claims.TokenID)

	require.NoError(t, svc.Revoke(ctx, issued.Token))
	_, err = svc.Verify(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Issue(ctx, "", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
