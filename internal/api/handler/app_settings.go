package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/creamcroissant/vpnadmin/internal/service"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// AppSettingsHandler exposes /api/app-settings.
type AppSettingsHandler struct {
	settings service.AppSettingsService
	i18n     *i18n.Manager
}

// NewAppSettingsHandler wires the settings service into a handler.
func NewAppSettingsHandler(settings service.AppSettingsService, i18nMgr *i18n.Manager) *AppSettingsHandler {
	return &AppSettingsHandler{settings: settings, i18n: i18nMgr}
}

// Routes mounts the settings endpoints on r.
func (h *AppSettingsHandler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
	r.Get("/form", h.Form)
	r.Post("/reset", h.Reset)
	r.Get("/versions", h.Versions)
}

func (h *AppSettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, settings)
}

func (h *AppSettingsHandler) Form(w http.ResponseWriter, r *http.Request) {
	form, err := h.settings.Form(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, form)
}

// Update merges the body over the current settings form.
func (h *AppSettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	m, err := h.settings.Update(r.Context(), mergeInto[service.AppSettingsForm](body))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusOK, m, h.i18n)
}

func (h *AppSettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	m, err := h.settings.Reset(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusOK, m, h.i18n)
}

// Versions handles GET /app-settings/versions?limit=
func (h *AppSettingsHandler) Versions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	versions, err := h.settings.Versions(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondList(w, versions)
}
