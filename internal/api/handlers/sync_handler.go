package handlers

import (
	"net/http"

	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/services"
	"github.com/navin3756/shipit/internal/store"
)

type SyncHandler struct {
	svc services.LifecycleService
}

func NewSyncHandler(svc services.LifecycleService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.svc.SyncStatus())
}

// Reload forces a full reload from the remote table or the mirror.
func (h *SyncHandler) Reload(w http.ResponseWriter, r *http.Request) {
	projects := h.svc.Load(r.Context())
	writeData(w, r, http.StatusOK, struct {
		Status   store.SyncStatus `json:"status"`
		Projects []models.Project `json:"projects"`
	}{h.svc.SyncStatus(), projects})
}
