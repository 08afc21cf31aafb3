// 文件路径: internal/api/handler/ad_log.go
// 模块说明: 这是 internal 模块里的 ad_log 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/creamcroissant/vpnadmin/internal/api/requestctx"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// AdLogHandler exposes /api/ad-logs. The live feed is served by realtime.Hub.
type AdLogHandler struct {
	adLogs service.AdLogService
	i18n   *i18n.Manager
}

// NewAdLogHandler wires the ad log service into a handler.
func NewAdLogHandler(adLogs service.AdLogService, i18nMgr *i18n.Manager) *AdLogHandler {
	return &AdLogHandler{adLogs: adLogs, i18n: i18nMgr}
}

// Routes mounts the ad log endpoints on r.
func (h *AdLogHandler) Routes(r chi.Router) {
	r.Get("/callbacks", h.Callbacks)
	r.Post("/callback", h.Record)
	r.Get("/user-status", h.Statuses)
	r.Get("/user-status/{userId}", h.Status)
	r.Get("/stats", h.Stats)
}

// Callbacks handles GET /ad-logs/callbacks. fromDate/toDate are unix milliseconds.
func (h *AdLogHandler) Callbacks(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	filter := repository.AdCallbackFilter{
		UserID: strings.TrimSpace(values.Get("userId")),
		AdType: strings.TrimSpace(values.Get("adType")),
		Status: strings.TrimSpace(values.Get("status")),
	}
	var err error
	if filter.FromMillis, err = optionalInt64(r, "fromDate"); err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	if filter.ToMillis, err = optionalInt64(r, "toDate"); err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	if filter.Limit, err = parseLimit(r); err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}

	callbacks, err := h.adLogs.Callbacks(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondList(w, callbacks)
}

// Record handles POST /ad-logs/callback.
func (h *AdLogHandler) Record(w http.ResponseWriter, r *http.Request) {
	var input service.AdCallbackInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondServiceError(w, r, errInvalidJSON, h.i18n)
		return
	}
	result, err := h.adLogs.Record(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message": result.Notice.Render(h.i18n, requestctx.GetLanguage(r.Context())),
		"data":    result,
	})
}

func (h *AdLogHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.adLogs.Statuses(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondList(w, statuses)
}

func (h *AdLogHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.adLogs.Status(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, status)
}

func (h *AdLogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adLogs.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, stats)
}
