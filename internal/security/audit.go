// 文件路径: internal/security/audit.go
// 模块说明: 这是 internal 模块里的 audit 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package security

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Event 记录一次管理操作，例如创建节点或删除付费用户。
type Event struct {
	Kind     string // e.g. "server.create", "premium_user.delete"
	ActorID  string
	EntityID string
	IP       string
	Metadata map[string]any
	Occurred time.Time
}

// Recorder 记录审计事件，供后续分析。
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LoggerRecorder 将审计事件写入 slog.Logger。
type LoggerRecorder struct {
	logger *slog.Logger
}

// NewLoggerRecorder 返回记录器，写入指定 logger（为空时丢弃）。
func NewLoggerRecorder(logger *slog.Logger) *LoggerRecorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LoggerRecorder{logger: logger.With("component", "audit")}
}

// Record 实现 Recorder 并记录审计事件。
func (r *LoggerRecorder) Record(ctx context.Context, event Event) {
	if r == nil || r.logger == nil {
		return
	}
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}
	r.logger.InfoContext(ctx, "audit event",
		"kind", event.Kind,
		"actor_id", event.ActorID,
		"entity_id", event.EntityID,
		"ip", event.IP,
		"metadata", event.Metadata,
		"occurred", event.Occurred.Format(time.RFC3339Nano),
	)
}

// actorKey carries the acting operator through a context for audit records.
type actorKey struct{}

// WithActor stores the operator name and client IP on ctx.
func WithActor(ctx context.Context, actor, ip string) context.Context {
	return context.WithValue(ctx, actorKey{}, [2]string{actor, ip})
}

// ActorFromContext returns the operator name and IP stored by WithActor.
func ActorFromContext(ctx context.Context) (actor, ip string) {
	if v, ok := ctx.Value(actorKey{}).([2]string); ok {
		return v[0], v[1]
	}
	return "", ""
}
