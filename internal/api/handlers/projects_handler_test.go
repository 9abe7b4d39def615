package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/navin3756/shipit/internal/api/types"
	"github.com/navin3756/shipit/internal/api/validators"
	"github.com/navin3756/shipit/internal/blueprint"
	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/remote"
	"github.com/navin3756/shipit/internal/services"
	"github.com/navin3756/shipit/internal/store"
	"github.com/navin3756/shipit/internal/vault"
)

type testEnv struct {
	router http.Handler
	svc    services.LifecycleService
	sealer *vault.Sealer
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	mirror, err := store.OpenSQLiteMirror(filepath.Join(t.TempDir(), "mirror.db"), "shipit_projects")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mirror.Close() })

	rs := remote.Disabled()
	svc := services.NewLifecycleService(store.New(mirror, rs, nil), rs, services.WithReplyDelay(10*time.Millisecond))

	catalog, err := models.LoadExperts()
	require.NoError(t, err)
	sealer, _, err := vault.NewSealerFromBase64("")
	require.NoError(t, err)

	ph := NewProjectsHandler(svc, blueprint.NewService(nil), catalog, sealer, validators.New())
	eh := NewExpertsHandler(catalog)
	portal := NewPortalHandler(svc)
	sh := NewSyncHandler(svc)

	r := chi.NewRouter()
	r.Post("/blueprints", ph.Analyze)
	r.Put("/plan", ph.SelectPlan)
	r.Get("/projects", ph.List)
	r.Post("/projects", ph.Create)
	r.Get("/projects/{id}", ph.Get)
	r.Get("/projects/{id}/value", ph.Value)
	r.Post("/projects/{id}/hire", ph.Hire)
	r.Post("/projects/{id}/pickup", ph.Pickup)
	r.Put("/projects/{id}/status", ph.UpdateStatus)
	r.Post("/projects/{id}/deployment/complete", ph.CompleteDeployment)
	r.Post("/projects/{id}/milestones/{milestoneID}/approve", ph.ApproveMilestone)
	r.Post("/projects/{id}/messages", ph.SendMessage)
	r.Post("/projects/{id}/secrets", ph.AddSecret)
	r.Get("/experts", eh.List)
	r.Get("/experts/{id}", eh.Get)
	r.Get("/experts/{id}/quote", eh.Quote)
	r.Get("/portal/open", portal.Open)
	r.Get("/portal/deliveries", portal.Deliveries)
	r.Get("/sync/status", sh.Status)
	r.Post("/sync/reload", sh.Reload)

	return &testEnv{router: r, svc: svc, sealer: sealer}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) types.APIResponse {
	t.Helper()
	var resp types.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func decodeProject(t *testing.T, rr *httptest.ResponseRecorder) models.Project {
	t.Helper()
	var resp struct {
		Data models.Project `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Data
}

func (e *testEnv) create(t *testing.T, profile string) models.Project {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/projects", types.CreateProjectRequest{
		SourceType:  "github",
		TechProfile: profile,
		GitHubURL:   "https://github.com/acme/demo",
		RepoName:    "demo",
		RepoOwner:   "acme",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeProject(t, rr)
}

func TestCreateProject(t *testing.T) {
	env := newEnv(t)

	p := env.create(t, "non-tech-founder")
	require.Equal(t, models.StatusBlueprintReady, p.Status)
	require.True(t, p.IsGitHubConnected)
	require.Equal(t, "https://github.com/acme/demo", p.GitHubURL)
	require.Len(t, p.Milestones, 4)
	require.NotNil(t, p.Blueprint)
	require.Equal(t, 180.0, p.Blueprint.Fare.Total)
	require.Equal(t, 180.0, *p.TotalBookingCost)

	rr := env.do(t, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	require.Equal(t, int64(1), resp.Meta.Total)
}

func TestCreateProjectDefaults(t *testing.T) {
	env := newEnv(t)
	rr := env.do(t, http.MethodPost, "/projects", types.CreateProjectRequest{
		SourceType:  "paste",
		TechProfile: "solo-dev",
		PastedCode:  "console.log('hi')",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	p := decodeProject(t, rr)

	require.Equal(t, "Untitled Shipment", p.RepoName)
	require.Equal(t, "Client", p.RepoOwner)
	require.Equal(t, "No description provided.", p.Description)
	require.False(t, p.IsGitHubConnected)
	require.Equal(t, "console.log('hi')", p.PastedCode)
	require.Empty(t, p.GitHubURL)
	require.Equal(t, 55.0, p.Blueprint.Fare.Total)
}

func TestCreateProjectValidation(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPost, "/projects", types.CreateProjectRequest{TechProfile: "wizard"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/projects", types.CreateProjectRequest{SourceType: "github", TechProfile: "solo-dev"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeDoesNotCreate(t *testing.T) {
	env := newEnv(t)
	rr := env.do(t, http.MethodPost, "/blueprints", types.CreateProjectRequest{TechProfile: "technical-pm", Stack: "django"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data models.Blueprint `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "django", resp.Data.Stack)
	require.Empty(t, env.svc.List())
}

func TestHireExpert(t *testing.T) {
	env := newEnv(t)
	p := env.create(t, "solo-dev")

	rr := env.do(t, http.MethodPost, "/projects/"+p.ID+"/hire", types.HireRequest{ExpertID: "e1", Duration: "60m"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	hired := decodeProject(t, rr)
	require.Equal(t, models.StatusInstalling, hired.Status)
	require.Equal(t, "e1", hired.ExpertID)
	require.Equal(t, 200.0, *hired.TechnicianFee)
	require.Equal(t, 40.0, *hired.PlatformFee)
	require.Equal(t, 240.0, *hired.TotalBookingCost)
	require.NotNil(t, hired.LiveSessionStart)

	rr = env.do(t, http.MethodGet, "/projects/"+p.ID+"/value", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHireExpertErrors(t *testing.T) {
	env := newEnv(t)
	p := env.create(t, "solo-dev")

	rr := env.do(t, http.MethodPost, "/projects/"+p.ID+"/hire", types.HireRequest{ExpertID: "e1", Duration: "90m"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/projects/"+p.ID+"/hire", types.HireRequest{ExpertID: "nobody", Duration: "30m"})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/projects/missing/hire", types.HireRequest{ExpertID: "e1", Duration: "30m"})
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not_found", decodeResponse(t, rr).Error.Code)
}

func TestStatusAndMilestones(t *testing.T) {
	env := newEnv(t)
	p := env.create(t, "solo-dev")
	base := "/projects/" + p.ID

	rr := env.do(t, http.MethodPost, base+"/deployment/complete", nil)
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, http.MethodPost, base+"/pickup", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, models.PickupTechnicianID, decodeProject(t, rr).ExpertID)

	rr = env.do(t, http.MethodPut, base+"/status", types.StatusRequest{Status: string(models.StatusDraft)})
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "invalid_transition", decodeResponse(t, rr).Error.Code)

	rr = env.do(t, http.MethodPut, base+"/status", types.StatusRequest{Status: "Exploded"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		rr = env.do(t, http.MethodPost, base+"/milestones/"+id+"/approve", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	require.Equal(t, models.StatusDeployed, decodeProject(t, rr).Status)

	rr = env.do(t, http.MethodPost, base+"/milestones/m7/approve", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/portal/deliveries", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var deliveries struct {
		Data []models.Project `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &deliveries))
	require.Len(t, deliveries.Data, 1)
}

func TestSendMessageGetsReply(t *testing.T) {
	env := newEnv(t)
	p := env.create(t, "solo-dev")

	rr := env.do(t, http.MethodPost, "/projects/"+p.ID+"/messages", types.MessageRequest{Text: "status?"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	require.Eventually(t, func() bool {
		got, err := env.svc.Get(p.ID)
		return err == nil && len(got.Messages) == 2
	}, 2*time.Second, 10*time.Millisecond)

	rr = env.do(t, http.MethodPost, "/projects/"+p.ID+"/messages", types.MessageRequest{})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddSecretIsSealed(t *testing.T) {
	env := newEnv(t)
	p := env.create(t, "solo-dev")

	rr := env.do(t, http.MethodPost, "/projects/"+p.ID+"/secrets", types.SecretRequest{Key: "STRIPE_KEY", Value: "sk_live_123"})
	require.Equal(t, http.StatusCreated, rr.Code)

	got := decodeProject(t, rr)
	require.Len(t, got.Vault, 1)
	require.True(t, vault.IsEncrypted(got.Vault[0].Value))
	require.NotContains(t, got.Vault[0].Value, "sk_live_123")

	plain, err := env.sealer.Decrypt(got.Vault[0].Value)
	require.NoError(t, err)
	require.Equal(t, "sk_live_123", plain)
}

func TestSelectPlan(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPut, "/plan", types.PlanRequest{Tier: "pro"})
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data types.PlanResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Data.Upgraded)

	env.create(t, "solo-dev")
	rr = env.do(t, http.MethodPut, "/plan", types.PlanRequest{Tier: "enterprise"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Data.Upgraded)
	require.Equal(t, models.TierEnterprise, resp.Data.Project.Blueprint.ShipmentTier)

	rr = env.do(t, http.MethodPut, "/plan", types.PlanRequest{Tier: "gold"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExpertsCatalog(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodGet, "/experts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Data []models.Expert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 3)

	rr = env.do(t, http.MethodGet, "/experts/e1/quote?duration=30m", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var quote struct {
		Data struct {
			TechnicianFee float64 `json:"technicianFee"`
			PlatformFee   float64 `json:"platformFee"`
			TotalCost     float64 `json:"totalCost"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &quote))
	require.Equal(t, 125.0, quote.Data.TechnicianFee)
	require.Equal(t, 25.0, quote.Data.PlatformFee)
	require.Equal(t, 150.0, quote.Data.TotalCost)

	rr = env.do(t, http.MethodGet, "/experts/e1/quote?duration=2h", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/experts/zz", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSyncEndpoints(t *testing.T) {
	env := newEnv(t)
	env.create(t, "solo-dev")

	rr := env.do(t, http.MethodPost, "/sync/reload", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/sync/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data store.SyncStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Data.RemoteActive)
	require.Equal(t, store.LoadedFromMirror, resp.Data.Source)
}
