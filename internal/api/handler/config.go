package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
	"github.com/creamcroissant/vpnadmin/internal/support/i18n"
)

// ConfigHandler exposes /api/configs.
type ConfigHandler struct {
	configs service.ConfigService
	i18n    *i18n.Manager
}

// NewConfigHandler wires the config service into a handler.
func NewConfigHandler(configs service.ConfigService, i18nMgr *i18n.Manager) *ConfigHandler {
	return &ConfigHandler{configs: configs, i18n: i18nMgr}
}

// Routes mounts the config endpoints on r.
func (h *ConfigHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/form", h.Form)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/form", h.Form)
	r.Post("/{id}/download", h.Download)
	r.Post("/{id}/vote", h.Vote)
}

func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	forPremium, err := optionalBool(r, "forPremium")
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	values := r.URL.Query()
	filter := repository.ConfigFilter{
		Type:       strings.TrimSpace(values.Get("type")),
		ForPremium: forPremium,
		Operator:   strings.TrimSpace(values.Get("operator")),
	}
	configs, err := h.configs.List(r.Context(), filter, query)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondList(w, configs)
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, cfg)
}

func (h *ConfigHandler) Form(w http.ResponseWriter, r *http.Request) {
	form, err := h.configs.Form(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, form)
}

func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	form, err := h.configs.Form(r.Context(), "")
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	if err := json.Unmarshal(body, &form); err != nil {
		respondServiceError(w, r, errInvalidJSON, h.i18n)
		return
	}
	m, err := h.configs.Create(r.Context(), form)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusCreated, m, h.i18n)
}

func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	m, err := h.configs.Update(r.Context(), chi.URLParam(r, "id"), mergeInto[service.ConfigForm](body))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusOK, m, h.i18n)
}

func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	m, err := h.configs.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondDeletion(w, r, m, h.i18n)
}

// Download handles POST /configs/{id}/download: one more download on the counter.
func (h *ConfigHandler) Download(w http.ResponseWriter, r *http.Request) {
	m, err := h.configs.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusOK, m, h.i18n)
}

type voteRequest struct {
	Positive *bool `json:"positive"`
}

// Vote handles POST /configs/{id}/vote with {"positive": bool}.
func (h *ConfigHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondServiceError(w, r, errInvalidJSON, h.i18n)
		return
	}
	if req.Positive == nil {
		respondServiceError(w, r, fmt.Errorf("%w: positive is required", service.ErrInvalidInput), h.i18n)
		return
	}
	m, err := h.configs.Vote(r.Context(), chi.URLParam(r, "id"), *req.Positive)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusOK, m, h.i18n)
}

func (h *ConfigHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.configs.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, stats)
}
