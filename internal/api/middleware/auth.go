// 文件路径: internal/api/middleware/auth.go
// 模块说明: 这是 internal 模块里的 auth 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/creamcroissant/vpnadmin/internal/api/requestctx"
	"github.com/creamcroissant/vpnadmin/internal/security"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

// OperatorGuard 要求请求携带有效的运营人员令牌。
// 浏览器的 WebSocket 握手无法设置请求头，所以也接受 access_token 查询参数。
func OperatorGuard(sessions service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions == nil {
				writeUnauthorized(w, "session service unavailable")
				return
			}
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get("access_token"))
			}
			if token == "" {
				writeUnauthorized(w, "missing authorization header")
				return
			}
			claims, err := sessions.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					writeUnauthorized(w, err.Error())
					return
				}
				writeServerError(w, "session verification failed")
				return
			}
			ctx := requestctx.WithOperator(r.Context(), requestctx.OperatorClaims{
				Subject:   claims.Subject,
				SessionID: claims.SessionID,
				ExpiresAt: claims.ExpiresAt,
			})
			ctx = security.WithActor(ctx, claims.Subject, ClientIP(r))
			noteOperator(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearer returns the token part of an Authorization header.
func ExtractBearer(header string) string {
	return extractBearer(header)
}

func extractBearer(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return trimmed
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

func writeServerError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}
