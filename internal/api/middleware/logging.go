// 文件路径: internal/api/middleware/logging.go
// 模块说明: 访问日志中间件：请求 ID、路由模板、操作人和慢请求告警
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoggingConfig 日志中间件配置
type LoggingConfig struct {
	Logger        *slog.Logger
	SlowThreshold time.Duration // 超过此耗时记为 WARN，默认 500ms
	SkipPaths     []string
}

// accessNote 由日志中间件放进 context，内层中间件往里补充字段，请求结束时一起输出。
type accessNote struct {
	operator string
}

type accessNoteKey struct{}

// noteOperator 记录通过 OperatorGuard 的运营人员，供访问日志使用。
func noteOperator(ctx context.Context, subject string) {
	if note, ok := ctx.Value(accessNoteKey{}).(*accessNote); ok {
		note.operator = subject
	}
}

// StructuredLogger 每个请求结束后输出一条结构化访问日志。
// 5xx 记为 ERROR，4xx 和慢请求记为 WARN。
func StructuredLogger(config LoggingConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	slow := config.SlowThreshold
	if slow <= 0 {
		slow = 500 * time.Millisecond
	}
	skip := newPathSet(config.SkipPaths)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip.has(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())
			note := &accessNote{}
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			if requestID != "" {
				ww.Header().Set("X-Request-ID", requestID)
			}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), accessNoteKey{}, note)))

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Duration("duration", elapsed),
				slog.String("client_ip", ClientIP(r)),
				slog.Int("bytes", ww.BytesWritten()),
			}
			if note.operator != "" {
				attrs = append(attrs, slog.String("operator", note.operator))
			}
			if id := chi.URLParam(r, "id"); id != "" {
				attrs = append(attrs, slog.String("entity_id", id))
			}

			level, msg := slog.LevelInfo, "request completed"
			switch {
			case status >= 500:
				level, msg = slog.LevelError, "request failed"
			case status >= 400:
				level, msg = slog.LevelWarn, "request rejected"
			case elapsed > slow:
				level, msg = slog.LevelWarn, "slow request"
			}
			logger.LogAttrs(r.Context(), level, msg, attrs...)
		})
	}
}
