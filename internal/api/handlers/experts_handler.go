package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/navin3756/shipit/internal/fare"
	"github.com/navin3756/shipit/internal/models"
	appErr "github.com/navin3756/shipit/pkg/errors"
)

type ExpertsHandler struct {
	catalog *models.ExpertCatalog
}

func NewExpertsHandler(catalog *models.ExpertCatalog) *ExpertsHandler {
	return &ExpertsHandler{catalog: catalog}
}

// List returns the catalog, filtered by name or specialty with ?q=.
func (h *ExpertsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.catalog.Search(r.URL.Query().Get("q")))
}

func (h *ExpertsHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.catalog.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, appErr.New(appErr.CodeNotFound, "expert not found"))
		return
	}
	writeData(w, r, http.StatusOK, e)
}

// Quote prices a session with the expert for ?duration= (default 60m).
func (h *ExpertsHandler) Quote(w http.ResponseWriter, r *http.Request) {
	e, ok := h.catalog.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, appErr.New(appErr.CodeNotFound, "expert not found"))
		return
	}
	raw := r.URL.Query().Get("duration")
	if raw == "" {
		raw = string(fare.Duration60)
	}
	d, err := fare.ParseDuration(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cost, err := fare.ComputeHireCost(e.BaseFee, e.HourlyRate, d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cost)
}
