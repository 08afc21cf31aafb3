// 文件路径: internal/api/router.go
// 模块说明: 这是 internal 模块里的 router 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/vpnadmin/internal/api/handler"
	"github.com/creamcroissant/vpnadmin/internal/api/middleware"
	"github.com/creamcroissant/vpnadmin/internal/config"
	"github.com/creamcroissant/vpnadmin/internal/security"
	"github.com/creamcroissant/vpnadmin/internal/service"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

var quietPaths = []string{"/healthz", "/metrics"}

// Services 汇总路由需要的全部服务。
type Services struct {
	Servers      service.ServerService
	Configs      service.ConfigService
	PremiumUsers service.PremiumUserService
	AdLogs       service.AdLogService
	AppSettings  service.AppSettingsService
	Sessions     service.SessionService
	System       service.SystemService
	// Feed serves the /ws/ad-logs push channel.
	Feed http.Handler
	I18n *i18n.Manager
}

// RouterOption 允许在创建 Router 时注入可选组件。
type RouterOption func(*routerOptions)

type routerOptions struct {
	registry    *prometheus.Registry
	rateLimiter *security.RateLimiter
}

// WithMetricsRegistry exposes reg on /metrics and registers the HTTP collectors on it.
func WithMetricsRegistry(reg *prometheus.Registry) RouterOption {
	return func(o *routerOptions) { o.registry = reg }
}

// WithRateLimiter enables per-IP rate limiting backed by the shared cache.
func WithRateLimiter(limiter *security.RateLimiter) RouterOption {
	return func(o *routerOptions) { o.rateLimiter = limiter }
}

// NewRouter wires the REST surface, the push channel and the operational endpoints.
func NewRouter(logger *slog.Logger, services Services, cfg *config.Config, opts ...RouterOption) http.Handler {
	var options routerOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if cfg == nil {
		panic("router requires config")
	}
	if services.Servers == nil {
		panic("router requires ServerService")
	}
	if services.Configs == nil {
		panic("router requires ConfigService")
	}
	if services.PremiumUsers == nil {
		panic("router requires PremiumUserService")
	}
	if services.AdLogs == nil {
		panic("router requires AdLogService")
	}
	if services.AppSettings == nil {
		panic("router requires AppSettingsService")
	}
	if services.Sessions == nil {
		panic("router requires SessionService")
	}
	if services.System == nil {
		panic("router requires SystemService")
	}
	if services.I18n == nil {
		panic("router requires I18n Manager")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)

	metricsCfg := cfg.Metrics
	if metricsCfg.Enabled {
		if options.registry == nil {
			options.registry = prometheus.NewRegistry()
			options.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		}
		metrics := middleware.NewMetrics(options.registry, middleware.MetricsConfig{
			Namespace: metricsCfg.Namespace,
			Subsystem: metricsCfg.Subsystem,
			Buckets:   metricsCfg.Buckets,
			SkipPaths: quietPaths,
		})
		r.Use(metrics.Middleware())
	}

	r.Use(
		middleware.CORS(middleware.DefaultCORSConfig(cfg.HTTP.CORSOrigins)),
		middleware.BodyLimit(middleware.BodyLimitConfig{MaxBytes: cfg.HTTP.BodyLimit}),
		middleware.RateLimit(options.rateLimiter, middleware.RateLimitConfig{
			Limit:     cfg.RateLimit.Limit,
			Window:    cfg.RateLimit.Window,
			SkipPaths: quietPaths,
		}, logger),
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     quietPaths,
		}),
		chiMiddleware.Recoverer,
		middleware.I18n(services.I18n),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","ts":"` + time.Now().UTC().Format(time.RFC3339Nano) + `"}`))
	})

	if metricsCfg.Enabled {
		metricsHandler := promhttp.HandlerFor(options.registry, promhttp.HandlerOpts{Registry: options.registry})
		if metricsCfg.Token != "" {
			r.With(middleware.MetricsGuard(metricsCfg.Token)).Handle("/metrics", metricsHandler)
		} else {
			r.Handle("/metrics", metricsHandler)
		}
	}

	guard := middleware.OperatorGuard(services.Sessions)

	if services.Feed != nil {
		r.With(guard).Get("/ws/ad-logs", services.Feed.ServeHTTP)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(guard, chiMiddleware.Compress(5))
		registerAPIRoutes(api, services)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("unmapped route hit", "method", req.Method, "path", req.URL.Path)
		handler.RespondErrorI18n(req.Context(), w, http.StatusNotFound, "error.not_found", services.I18n)
	})

	return r
}

func registerAPIRoutes(api chi.Router, services Services) {
	api.Route("/servers", handler.NewServerHandler(services.Servers, services.I18n).Routes)
	api.Route("/configs", handler.NewConfigHandler(services.Configs, services.I18n).Routes)
	api.Route("/premium-users", handler.NewPremiumUserHandler(services.PremiumUsers, services.I18n).Routes)
	api.Route("/ad-logs", handler.NewAdLogHandler(services.AdLogs, services.I18n).Routes)
	api.Route("/app-settings", handler.NewAppSettingsHandler(services.AppSettings, services.I18n).Routes)

	sessionHandler := handler.NewSessionHandler(services.Sessions, services.I18n)
	api.Get("/session", sessionHandler.Get)
	api.Delete("/session", sessionHandler.Delete)

	api.Get("/system/status", handler.NewSystemHandler(services.System).Status)
}
