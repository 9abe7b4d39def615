package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/navin3756/shipit/internal/api/types"
	"github.com/navin3756/shipit/internal/blueprint"
	"github.com/navin3756/shipit/internal/fare"
	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/services"
	"github.com/navin3756/shipit/internal/vault"
	appErr "github.com/navin3756/shipit/pkg/errors"
)

type ProjectsHandler struct {
	svc      services.LifecycleService
	gen      blueprint.Generator
	experts  *models.ExpertCatalog
	sealer   vault.Encrypter
	validate structValidator
	now      func() time.Time
}

func NewProjectsHandler(svc services.LifecycleService, gen blueprint.Generator, experts *models.ExpertCatalog, sealer vault.Encrypter, v structValidator) *ProjectsHandler {
	return &ProjectsHandler{svc: svc, gen: gen, experts: experts, sealer: sealer, validate: v, now: time.Now}
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.svc.List()
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	resp := types.APIResponse{Success: true, Data: items[start:end], Meta: &types.Meta{Page: page, PageSize: size, Total: int64(len(items))}}
	writeJSON(w, http.StatusOK, resp)
}

// Analyze previews the blueprint a submission would get without creating a
// project.
func (h *ProjectsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req types.CreateProjectRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	in := draftInput(req)
	writeData(w, r, http.StatusOK, h.blueprintFor(r, in))
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateProjectRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	in := draftInput(req)
	draft := services.NewProjectDraft(in, h.blueprintFor(r, in))
	p, err := h.svc.CreateProject(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, p)
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

// Value reports how much of the booking has been delivered so far.
func (h *ProjectsHandler) Value(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := types.ValueResponse{
		ProjectID:      p.ID,
		Status:         p.Status,
		ValueDelivered: fare.ValueDelivered(p, h.now()),
	}
	if p.TotalBookingCost != nil {
		resp.BookingTotal = *p.TotalBookingCost
	}
	writeData(w, r, http.StatusOK, resp)
}

func (h *ProjectsHandler) Hire(w http.ResponseWriter, r *http.Request) {
	var req types.HireRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	expert, ok := h.experts.Get(req.ExpertID)
	if !ok {
		writeError(w, r, appErr.New(appErr.CodeNotFound, "expert not found").WithMeta("expert_id", req.ExpertID))
		return
	}
	p, err := h.svc.HireExpert(r.Context(), chi.URLParam(r, "id"), expert, fare.Duration(req.Duration))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.PickupProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req types.StatusRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	p, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), models.ProjectStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) CompleteDeployment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.CompleteDeployment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) ApproveMilestone(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.ApproveMilestone(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "milestoneID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req types.MessageRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	p, err := h.svc.SendMessage(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusAccepted, p)
}

// AddSecret seals the submitted value before it reaches the project.
func (h *ProjectsHandler) AddSecret(w http.ResponseWriter, r *http.Request) {
	var req types.SecretRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	ciphertext, err := h.sealer.Encrypt(req.Value)
	if err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeInternal, "encrypt secret"))
		return
	}
	p, err := h.svc.AddSecret(r.Context(), chi.URLParam(r, "id"), req.Key, ciphertext)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, p)
}

func (h *ProjectsHandler) SelectPlan(w http.ResponseWriter, r *http.Request) {
	var req types.PlanRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	p, upgraded, err := h.svc.SelectPlan(r.Context(), models.ShipmentTier(req.Tier))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := types.PlanResponse{Upgraded: upgraded}
	if upgraded {
		resp.Project = &p
	}
	writeData(w, r, http.StatusOK, resp)
}

func (h *ProjectsHandler) blueprintFor(r *http.Request, in services.DraftInput) models.Blueprint {
	bp := h.gen.Generate(r.Context(), in.BlueprintRequest())
	return blueprint.ApplyProfile(bp, in.TechProfile)
}

func draftInput(req types.CreateProjectRequest) services.DraftInput {
	return services.DraftInput{
		SourceType:  models.SourceType(req.SourceType),
		TechProfile: models.TechProfile(req.TechProfile),
		GitHubURL:   req.GitHubURL,
		PastedCode:  req.PastedCode,
		RepoName:    req.RepoName,
		RepoOwner:   req.RepoOwner,
		Description: req.Description,
		Stack:       req.Stack,
		SourceApp:   req.SourceApp,
	}
}
