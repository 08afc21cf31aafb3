// 文件路径: internal/api/handler/server.go
// 模块说明: 这是 internal 模块里的 server 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
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

// ServerHandler exposes /api/servers.
type ServerHandler struct {
	servers service.ServerService
	i18n    *i18n.Manager
}

// NewServerHandler wires the server service into a handler.
func NewServerHandler(servers service.ServerService, i18nMgr *i18n.Manager) *ServerHandler {
	return &ServerHandler{servers: servers, i18n: i18nMgr}
}

// Routes mounts the server endpoints on r.
func (h *ServerHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/online-users", h.Loads)
	r.Get("/form", h.Form)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/form", h.Form)
	r.Post("/{id}/ping", h.Ping)
}

// List handles GET /servers?q=&sort=&direction=&country=&premium=&protocols=
func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	premium, err := optionalBool(r, "premium")
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	filter := repository.ServerFilter{
		Country:   strings.TrimSpace(r.URL.Query().Get("country")),
		Premium:   premium,
		Protocols: multiValue(r, "protocols"),
	}
	servers, err := h.servers.List(r.Context(), filter, query)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondList(w, servers)
}

// Get handles GET /servers/{id}
func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	server, err := h.servers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, server)
}

// Form handles GET /servers/form and GET /servers/{id}/form: the dialog pre-fill.
func (h *ServerHandler) Form(w http.ResponseWriter, r *http.Request) {
	form, err := h.servers.Form(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, form)
}

// Create handles POST /servers. Missing fields keep the create-dialog defaults.
func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	form, err := h.servers.Form(r.Context(), "")
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	if err := json.Unmarshal(body, &form); err != nil {
		respondServiceError(w, r, errInvalidJSON, h.i18n)
		return
	}
	m, err := h.servers.Create(r.Context(), form)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusCreated, m, h.i18n)
}

// Update handles PUT /servers/{id}. Fields absent from the body keep their stored values.
func (h *ServerHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	m, err := h.servers.Update(r.Context(), chi.URLParam(r, "id"), mergeInto[service.ServerForm](body))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusOK, m, h.i18n)
}

// Delete handles DELETE /servers/{id}
func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	m, err := h.servers.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondDeletion(w, r, m, h.i18n)
}

// Ping handles POST /servers/{id}/ping
func (h *ServerHandler) Ping(w http.ResponseWriter, r *http.Request) {
	m, err := h.servers.Ping(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondMutation(w, r, http.StatusOK, m, h.i18n)
}

// Stats handles GET /servers/stats
func (h *ServerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.servers.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondData(w, stats)
}

// Loads handles GET /servers/online-users
func (h *ServerHandler) Loads(w http.ResponseWriter, r *http.Request) {
	loads, err := h.servers.Loads(r.Context())
	if err != nil {
		respondServiceError(w, r, err, h.i18n)
		return
	}
	respondList(w, loads)
}
