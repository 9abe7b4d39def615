package handlers

import (
	"net/http"

	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/services"
)

// PortalHandler serves the technician side: open jobs and own deliveries.
type PortalHandler struct {
	svc services.LifecycleService
}

func NewPortalHandler(svc services.LifecycleService) *PortalHandler {
	return &PortalHandler{svc: svc}
}

func (h *PortalHandler) Open(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.svc.OpenJobs())
}

func (h *PortalHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	expertID := r.URL.Query().Get("expert_id")
	if expertID == "" {
		expertID = models.PickupTechnicianID
	}
	writeData(w, r, http.StatusOK, h.svc.Deliveries(expertID))
}
