// 文件路径: internal/api/handler/session.go
// 模块说明: 这是 internal 模块里的 session 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/api/requestctx"
	"github.com/creamcroissant/vpnadmin/internal/service"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// SessionHandler 让客户端确认自己的令牌仍然有效，或主动注销。
type SessionHandler struct {
	sessions service.SessionService
	i18n     *i18n.Manager
}

// NewSessionHandler wires the session service into a handler.
func NewSessionHandler(sessions service.SessionService, i18nMgr *i18n.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions, i18n: i18nMgr}
}

// Get handles GET /api/session: echoes the verified operator and expiry.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := requestctx.OperatorFromContext(r.Context())
	if claims.Subject == "" {
		RespondErrorI18n(r.Context(), w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	respondData(w, map[string]any{
		"subject":   claims.Subject,
		"sessionId": claims.SessionID,
		"expiresAt": claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Delete handles DELETE /api/session: revokes the presented token.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if err := h.sessions.Revoke(r.Context(), raw); err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"revoked": true})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if header != "" {
		return header
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
