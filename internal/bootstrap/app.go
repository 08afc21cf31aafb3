// 文件路径: internal/bootstrap/app.go
// 模块说明: 这是 internal 模块里的 app 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/creamcroissant/vpnadmin/internal/api"
	"github.com/creamcroissant/vpnadmin/internal/config"
	"github.com/creamcroissant/vpnadmin/internal/job"
	"github.com/creamcroissant/vpnadmin/internal/migrations"
	"github.com/creamcroissant/vpnadmin/internal/realtime"
	"github.com/creamcroissant/vpnadmin/internal/repository/sqlstore"
	"github.com/creamcroissant/vpnadmin/internal/service"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// OpenStore opens the configured database, applies pending migrations when migrate is set
// and returns the store on top of it. Callers own the returned *sql.DB.
func OpenStore(cfg config.DBConfig, migrate bool) (*sql.DB, *sqlstore.Store, error) {
	db, driver, err := OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := migrations.Up(db, driver); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, sqlstore.NewStore(db, driver), nil
}

// AppOptions carries build information that is not part of the config file.
type AppOptions struct {
	Version string
	Now     func() time.Time
}

// App 持有一个完整运行中的服务端：数据库、服务、推送中心、定时任务和 HTTP 入口。
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sql.DB
	Store     *sqlstore.Store
	Infra     *Infrastructure
	Hub       *realtime.Hub
	Scheduler *job.Scheduler
	Handler   http.Handler
	Sessions  service.SessionService
	Registry  *prometheus.Registry
}

// NewApp wires every component from cfg. The returned App must be closed.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts AppOptions) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	startedAt := now().UTC()

	db, store, err := OpenStore(cfg.DB, true)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, DB: db, Store: store}

	signingKey, source, err := ResolveJWTSigningKey(ctx, store.Settings(), cfg.Auth.SigningKey, now)
	if err != nil {
		app.Close()
		return nil, err
	}
	logger.Info("jwt signing key loaded", "source", string(source))

	infra, err := BuildInfrastructure(cfg, signingKey, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Infra = infra

	i18nManager, err := i18n.NewManager(i18n.WithLogger(logger), i18n.WithDefaultLang("en-US"))
	if err != nil {
		app.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Registry = registry

	hub := realtime.NewHub(realtime.Options{
		AllowedOrigins: cfg.WS.AllowedOrigins,
		SendBuffer:     cfg.WS.SendBuffer,
		WriteTimeout:   cfg.WS.WriteTimeout,
		PingInterval:   cfg.WS.PingInterval,
		Logger:         logger,
	})
	app.Hub = hub

	deps := service.Deps{
		Store:    store,
		Cache:    infra.Cache,
		Audit:    infra.Audit,
		Logger:   logger,
		Now:      now,
		StatsTTL: cfg.Cache.StatsTTL,
	}
	adLogs := service.NewAdLogService(deps, service.AdLogOptions{
		Publisher:    hub,
		Metrics:      service.NewAdLogMetrics(registry, cfg.Metrics.Namespace),
		DefaultLimit: cfg.AdLogs.DefaultLimit,
	})
	premiumUsers := service.NewPremiumUserService(deps)
	app.Sessions = service.NewSessionService(infra.Token, infra.Cache, infra.Audit)

	scheduler := job.NewScheduler(logger)
	if _, err := scheduler.Register(cfg.AdLogs.RetentionSchedule, job.NewAdLogRetentionJob(adLogs, cfg.AdLogs.Retention, logger)); err != nil {
		app.Close()
		return nil, fmt.Errorf("register ad log retention: %w", err)
	}
	if _, err := scheduler.Register(cfg.AdLogs.ExpiryReportSchedule, job.NewPremiumExpiryReportJob(premiumUsers, logger)); err != nil {
		app.Close()
		return nil, fmt.Errorf("register expiry report: %w", err)
	}
	app.Scheduler = scheduler

	app.Handler = api.NewRouter(logger, api.Services{
		Servers:      service.NewServerService(deps),
		Configs:      service.NewConfigService(deps),
		PremiumUsers: premiumUsers,
		AdLogs:       adLogs,
		AppSettings:  service.NewAppSettingsService(deps),
		Sessions:     app.Sessions,
		System: service.NewSystemService(service.SystemOptions{
			Version:     opts.Version,
			DBDriver:    store.Driver(),
			DiskPath:    diskPath(cfg.DB),
			StartedAt:   startedAt,
			Subscribers: hub.Subscribers,
		}),
		Feed: hub,
		I18n: i18nManager,
	}, cfg, api.WithMetricsRegistry(registry), api.WithRateLimiter(infra.RateLimiter))

	return app, nil
}

func diskPath(cfg config.DBConfig) string {
	if cfg.Driver == migrations.DriverPostgres || cfg.Path == "" {
		return "/"
	}
	return filepath.Dir(cfg.Path)
}

// Serve 启动定时任务和 HTTP 服务，阻塞到 ctx 结束后优雅退出。
func (a *App) Serve(ctx context.Context) error {
	server := NewHTTPServer(a.Config.HTTP, a.Handler)
	a.Scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server starting", "addr", a.Config.HTTP.Addr, "env", a.Config.Log.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			a.Logger.Error("http server failed", "error", err)
			serveErr = err
		}
	}

	stopCtx := a.Scheduler.Stop()
	<-stopCtx.Done()

	// 先断开推送连接，hijack 之后的连接不受 Shutdown 管理
	a.Hub.Close()

	timeout := a.Config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.Logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("server shutdown error", "error", err)
		if serveErr == nil {
			serveErr = err
		}
	}
	a.Logger.Info("server exited cleanly")
	return serveErr
}

// Close releases the database handle.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
