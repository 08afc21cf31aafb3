// 文件路径: internal/api/requestctx/context.go
// 模块说明: 这是 internal 模块里的 requestctx 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package requestctx

import (
	"context"
	"time"
)

// OperatorClaims captures the operator guard metadata.
type OperatorClaims struct {
	Subject   string
	SessionID string
	ExpiresAt time.Time
}

type contextKey string

const operatorContextKey contextKey = "vpnadmin-operator"

// I18nKey 用于在 context 中存储语言标识的 key 类型。
type I18nKey struct{}

// WithLanguage 将语言标识附加到 context 中供下游使用。
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, I18nKey{}, lang)
}

// GetLanguage 从 context 中获取语言标识，若未设置则返回默认值 "en-US"。
func GetLanguage(ctx context.Context) string {
	if ctx == nil {
		return "en-US"
	}
	if lang, ok := ctx.Value(I18nKey{}).(string); ok && lang != "" {
		return lang
	}
	return "en-US"
}

// WithOperator attaches operator data to context.
func WithOperator(ctx context.Context, claims OperatorClaims) context.Context {
	return context.WithValue(ctx, operatorContextKey, claims)
}

// OperatorFromContext fetches operator claims or zero value.
func OperatorFromContext(ctx context.Context) OperatorClaims {
	if ctx == nil {
		return OperatorClaims{}
	}
	claims, _ := ctx.Value(operatorContextKey).(OperatorClaims)
	return claims
}
