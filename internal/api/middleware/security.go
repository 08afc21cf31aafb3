// 文件路径: internal/api/middleware/security.go
// 模块说明: 安全中间件：限流、请求体大小限制和 CORS
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/security"
)

// pathSet 是一组精确匹配的路径，用于跳过健康检查和 /metrics。
type pathSet map[string]struct{}

func newPathSet(paths []string) pathSet {
	set := make(pathSet, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

func (s pathSet) has(path string) bool {
	_, ok := s[path]
	return ok
}

// RateLimitConfig 配置 /api 限流。
type RateLimitConfig struct {
	Limit     int           // 每个窗口的请求数，<= 0 关闭
	Window    time.Duration // 窗口长度，默认 1 分钟
	KeyFunc   func(*http.Request) string
	SkipPaths []string
}

// RateLimit 基于 security.RateLimiter 的限流中间件，按客户端 IP 计数。
// limiter 为 nil 或 Limit <= 0 时直接放行；限流器出错时也放行。
func RateLimit(limiter *security.RateLimiter, config RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIP
	}
	if logger == nil {
		logger = slog.Default()
	}
	skip := newPathSet(config.SkipPaths)
	limit := strconv.Itoa(config.Limit)

	return func(next http.Handler) http.Handler {
		if limiter == nil || config.Limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip.has(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), config.KeyFunc(r), config.Limit, config.Window)
			if err != nil {
				logger.Warn("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			if !result.Allowed {
				retry := max(int(result.RetryAfter(time.Now()).Seconds()), 1)
				h.Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimitConfig 请求体大小限制配置
type BodyLimitConfig struct {
	MaxBytes int64 // 默认 1 MiB
}

// BodyLimit 限制表单提交的请求体大小。声明的 Content-Length 超限时直接 413，
// 其余情况交给 http.MaxBytesReader 在读取时截断。
func BodyLimit(config BodyLimitConfig) func(http.Handler) http.Handler {
	if config.MaxBytes <= 0 {
		config.MaxBytes = 1 << 20
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > config.MaxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, config.MaxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// CORSConfig CORS 配置。不支持 credentials。
type CORSConfig struct {
	AllowedOrigins []string // "*" 表示所有
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSConfig 默认 CORS 配置，origins 来自 http.cors_origins
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-I18N-Lang"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         24 * time.Hour,
	}
}

// CORS 跨域资源共享中间件。来源不在白名单时不写任何 CORS 头，预检请求也照常往下走。
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	origins := newPathSet(config.AllowedOrigins)
	allowAll := len(config.AllowedOrigins) == 0 || origins.has("*")
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	exposed := strings.Join(config.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(int(config.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			switch {
			case origin == "":
				next.ServeHTTP(w, r)
				return
			case allowAll:
				h.Set("Access-Control-Allow-Origin", "*")
			case origins.has(origin):
				h.Set("Access-Control-Allow-Origin", origin)
			default:
				next.ServeHTTP(w, r)
				return
			}
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if config.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP 返回请求方 IP。只有直连地址是本机或内网代理时才看 X-Forwarded-For / X-Real-IP，
// 并从 X-Forwarded-For 右侧往左跳过可信代理，取第一个外部地址。
func ClientIP(r *http.Request) string {
	remote, ok := parseAddr(r.RemoteAddr)
	if !ok {
		return ""
	}
	if !trustedProxy(remote) {
		return remote.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, ok := parseAddr(hops[i])
			if !ok {
				break
			}
			if !trustedProxy(hop) || i == 0 {
				return hop.String()
			}
		}
	}
	if addr, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return addr.String()
	}
	return remote.String()
}

func parseAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func trustedProxy(addr netip.Addr) bool {
	return addr.IsLoopback() || addr.IsPrivate()
}
