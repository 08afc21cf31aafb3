package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/creamcroissant/vpnadmin/internal/api/requestctx"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// Helper to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}

// RespondErrorI18n writes {"error": <translated key>}.
func RespondErrorI18n(ctx context.Context, w http.ResponseWriter, status int, key string, i18nMgr *i18n.Manager, args ...interface{}) {
	respondJSON(w, status, map[string]any{
		"error": translate(ctx, i18nMgr, key, args...),
	})
}

// RespondSuccessI18n writes {"message": <translated key>, "data": data}.
func RespondSuccessI18n(ctx context.Context, w http.ResponseWriter, key string, i18nMgr *i18n.Manager, data any) {
	resp := map[string]any{
		"message": translate(ctx, i18nMgr, key),
	}
	if data != nil {
		resp["data"] = data
	}
	respondJSON(w, http.StatusOK, resp)
}

func translate(ctx context.Context, i18nMgr *i18n.Manager, key string, args ...interface{}) string {
	if i18nMgr == nil {
		return key // Fallback if manager is missing (e.g. in tests)
	}
	return i18nMgr.Translate(requestctx.GetLanguage(ctx), key, args...)
}

// respondData wraps a read result as {"data": ...}.
func respondData(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, map[string]any{"data": data})
}

func respondList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"total": len(items),
	})
}

// respondMutation 把服务层的确认消息按请求语言渲染出来。
func respondMutation[T any](w http.ResponseWriter, r *http.Request, status int, m service.Mutation[T], i18nMgr *i18n.Manager) {
	resp := map[string]any{
		"message": m.Notice.Render(i18nMgr, requestctx.GetLanguage(r.Context())),
	}
	if m.Entity != nil {
		resp["data"] = m.Entity
	}
	respondJSON(w, status, resp)
}

// respondDeletion always answers 200; deleted=false means the id was already absent.
func respondDeletion[T any](w http.ResponseWriter, r *http.Request, m service.Mutation[T], i18nMgr *i18n.Manager) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": m.Notice.Render(i18nMgr, requestctx.GetLanguage(r.Context())),
		"deleted": m.Deleted,
	})
}

// respondServiceError 把服务层错误映射成 HTTP 状态码和翻译后的消息。
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, i18nMgr *i18n.Manager) {
	ctx := r.Context()
	if ve, ok := service.AsValidationError(err); ok {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  translate(ctx, i18nMgr, "error.validation"),
			"fields": ve.Fields,
		})
		return
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		RespondErrorI18n(ctx, w, http.StatusRequestEntityTooLarge, "error.body_too_large", i18nMgr)
	case errors.Is(err, errInvalidJSON):
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.invalid_json", i18nMgr)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		RespondErrorI18n(ctx, w, http.StatusNotFound, "error.not_found", i18nMgr)
	case errors.Is(err, service.ErrInvalidSort):
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.invalid_sort", i18nMgr)
	case errors.Is(err, service.ErrInvalidFilter):
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.invalid_filter", i18nMgr)
	case errors.Is(err, service.ErrInvalidInput):
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.invalid_input", i18nMgr)
	case errors.Is(err, repository.ErrDuplicate):
		RespondErrorI18n(ctx, w, http.StatusConflict, "error.duplicate", i18nMgr)
	case errors.Is(err, service.ErrUnauthorized):
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", i18nMgr)
	case errors.Is(err, service.ErrRateLimited):
		RespondErrorI18n(ctx, w, http.StatusTooManyRequests, "error.rate_limited", i18nMgr)
	default:
		slog.ErrorContext(ctx, "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		RespondErrorI18n(ctx, w, http.StatusInternalServerError, "error.internal", i18nMgr)
	}
}
