package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/navin3756/shipit/internal/api/handlers"
	mw "github.com/navin3756/shipit/internal/api/middleware"
)

type Dependencies struct {
	HealthHandler   *handlers.HealthHandler
	ProjectsHandler *handlers.ProjectsHandler
	ExpertsHandler  *handlers.ExpertsHandler
	PortalHandler   *handlers.PortalHandler
	SyncHandler     *handlers.SyncHandler
	RateLimiter     *mw.RateLimiter
	AllowedOrigins  []string
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS(dep.AllowedOrigins...))
	if dep.RateLimiter != nil {
		r.Use(dep.RateLimiter.Handler)
	}
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := dep.HealthHandler
	if hh == nil {
		hh = handlers.NewHealthHandler(nil)
	}
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/blueprints", dep.ProjectsHandler.Analyze)
		api.Put("/plan", dep.ProjectsHandler.SelectPlan)

		api.Route("/projects", func(pr chi.Router) {
			pr.Get("/", dep.ProjectsHandler.List)
			pr.Post("/", dep.ProjectsHandler.Create)
			pr.Route("/{id}", func(p chi.Router) {
				p.Get("/", dep.ProjectsHandler.Get)
				p.Get("/value", dep.ProjectsHandler.Value)
				p.Post("/hire", dep.ProjectsHandler.Hire)
				p.Post("/pickup", dep.ProjectsHandler.Pickup)
				p.Put("/status", dep.ProjectsHandler.UpdateStatus)
				p.Post("/deployment/complete", dep.ProjectsHandler.CompleteDeployment)
				p.Post("/milestones/{milestoneID}/approve", dep.ProjectsHandler.ApproveMilestone)
				p.Post("/messages", dep.ProjectsHandler.SendMessage)
				p.Post("/secrets", dep.ProjectsHandler.AddSecret)
			})
		})

		api.Route("/experts", func(er chi.Router) {
			er.Get("/", dep.ExpertsHandler.List)
			er.Get("/{id}", dep.ExpertsHandler.Get)
			er.Get("/{id}/quote", dep.ExpertsHandler.Quote)
		})

		api.Route("/portal", func(pr chi.Router) {
			pr.Get("/open", dep.PortalHandler.Open)
			pr.Get("/deliveries", dep.PortalHandler.Deliveries)
		})

		api.Route("/sync", func(sr chi.Router) {
			sr.Get("/status", dep.SyncHandler.Status)
			sr.Post("/reload", dep.SyncHandler.Reload)
		})
	})

	return r
}
