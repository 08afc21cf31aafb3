// 文件路径: internal/api/handler/premium_user.go
// 模块说明: 这是 internal 模块里的 premium_user 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// PremiumUserHandler exposes /api/premium-users.
type PremiumUserHandler struct {
	users service.PremiumUserService
	i18n  *i18n.Manager
}

// NewPremiumUserHandler wires the premium user service into a handler.
func NewPremiumUserHandler(users service.PremiumUserService, i18nMgr *i18n.Manager) *PremiumUserHandler {
	return &PremiumUserHandler{users: users, i18n: i18nMgr}
}

// Routes mounts the premium user endpoints on r.
func (h *PremiumUserHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/form", h.Form)
	r.Get("/verify/{deviceId}", h.Verify)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/form", h.Form)
}

// List handles GET /premium-users?q=&sort=&direction=&expired=&suspicious=&email=
func (h *PremiumUserHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	expired, err := optionalBool(r, "expired")
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	suspicious, err := optionalBool(r, "suspicious")
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	filter := repository.PremiumUserFilter{
		Expired:    expired,
		Suspicious: suspicious,
		Email:      strings.TrimSpace(r.URL.Query().Get("email")),
	}
	users, err := h.users.List(r.Context(), filter, query)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondList(w, users)
}

// Get handles GET /premium-users/{id}
func (h *PremiumUserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, user)
}

// Form handles GET /premium-users/form and /premium-users/{id}/form
func (h *PremiumUserHandler) Form(w http.ResponseWriter, r *http.Request) {
	form, err := h.users.Form(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, form)
}

// Create handles POST /premium-users
func (h *PremiumUserHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	form, err := h.users.Form(r.Context(), "")
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	if err := json.Unmarshal(body, &form); err != nil {
		respondServiceError(w, r, errInvalidJSON, h.i18n)
		return
	}
	m, err := h.users.Create(r.Context(), form)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusCreated, m, h.i18n)
}

// Update handles PUT /premium-users/{id}
func (h *PremiumUserHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	m, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), mergeInto[service.PremiumUserForm](body))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusOK, m, h.i18n)
}

// Delete handles DELETE /premium-users/{id}
func (h *PremiumUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	m, err := h.users.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondDeletion(w, r, m, h.i18n)
}

// Verify handles GET /premium-users/verify/{deviceId}. Unknown devices answer 200 with found=false.
func (h *PremiumUserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	result, err := h.users.Verify(r.Context(), chi.URLParam(r, "deviceId"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, result)
}

// Stats handles GET /premium-users/stats
func (h *PremiumUserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, stats)
}
