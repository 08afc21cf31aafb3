// 文件路径: internal/bootstrap/infra.go
// 模块说明: 这是 internal 模块里的 infra 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/auth/token"
	"github.com/creamcroissant/vpnadmin/internal/cache"
	"github.com/creamcroissant/vpnadmin/internal/config"
	"github.com/creamcroissant/vpnadmin/internal/security"
)

// Infrastructure bundles shared helpers used by services and HTTP middleware.
type Infrastructure struct {
	Cache       cache.Store
	Token       *token.Manager
	RateLimiter *security.RateLimiter
	Audit       security.Recorder
}

// BuildInfrastructure wires default implementations for cache/token/rate-limit/audit helpers.
// signingKey is the already resolved key (see ResolveJWTSigningKey).
func BuildInfrastructure(cfg *config.Config, signingKey string, logger *slog.Logger) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}
	if signingKey == "" || signingKey == defaultJWTSigningKey {
		return nil, fmt.Errorf("auth.signing_key must be resolved before building infrastructure")
	}

	cacheStore := cache.NewStore(cache.Options{
		Prefix:          "vpnadmin",
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	})

	tokenManager, err := token.NewManager(token.Options{
		SigningKey: []byte(signingKey),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		TTL:        cfg.Auth.TokenTTL,
		Leeway:     cfg.Auth.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	rateLimiter, err := security.NewRateLimiter(cacheStore)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	return &Infrastructure{
		Cache:       cacheStore,
		Token:       tokenManager,
		RateLimiter: rateLimiter,
		Audit:       security.NewLoggerRecorder(logger),
	}, nil
}
