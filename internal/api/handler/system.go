package handler

import (
	"net/http"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

// SystemHandler serves GET /api/system/status.
type SystemHandler struct {
	system service.SystemService
}

// NewSystemHandler wires the system monitor into a handler.
func NewSystemHandler(system service.SystemService) *SystemHandler {
	return &SystemHandler{system: system}
}

// Status returns a host and process snapshot.
func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondData(w, h.system.Status(r.Context()))
}
