package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/api"
	"github.com/navin3756/shipit/internal/api/handlers"
	mw "github.com/navin3756/shipit/internal/api/middleware"
	"github.com/navin3756/shipit/internal/api/validators"
	"github.com/navin3756/shipit/internal/blueprint"
	"github.com/navin3756/shipit/internal/bootstrap"
	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/queue/tasks"
	"github.com/navin3756/shipit/internal/services"
	"github.com/navin3756/shipit/internal/vault"
	"github.com/navin3756/shipit/pkg/config"
	"github.com/navin3756/shipit/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting ShipIt API",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize runtime", zap.Error(err))
	}
	defer rt.Close()

	// Blueprint generation
	var model blueprint.Model
	if cfg.GeminiAPIKey != "" {
		gm, err := blueprint.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.BlueprintModel)
		if err != nil {
			log.Warn("blueprint model unavailable, using fallback blueprints", zap.Error(err))
		} else {
			model = gm
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, using fallback blueprints")
	}
	genOpts := []blueprint.Option{
		blueprint.WithTimeout(cfg.BlueprintTimeout),
		blueprint.WithLogger(logger.Named("blueprint")),
	}
	if rt.Redis != nil && cfg.BlueprintCacheTTL > 0 {
		genOpts = append(genOpts, blueprint.WithCache(blueprint.NewRedisCache(rt.Redis, cfg.BlueprintCacheTTL)))
	}
	gen := blueprint.NewService(model, genOpts...)

	sealer, ephemeral, err := vault.NewSealerFromBase64(cfg.VaultKey)
	if err != nil {
		log.Fatal("Invalid vault key", zap.Error(err))
	}
	if ephemeral {
		log.Warn("VAULT_KEY not set, secrets sealed with an ephemeral key will not survive a restart")
	}

	// Expert replies go through the queue only when a worker can reach the
	// same remote table this process reads.
	svcOpts := []services.Option{
		services.WithReplyDelay(cfg.ExpertReplyDelay),
		services.WithLogger(logger.Named("lifecycle")),
	}
	if rt.Redis != nil && rt.Remote.Enabled() {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer client.Close()
		svcOpts = append(svcOpts, services.WithReplyScheduler(tasks.NewReplyEnqueuer(client)))
		log.Info("expert replies scheduled on queue")
	}
	svc := services.NewLifecycleService(rt.Store, rt.Remote, svcOpts...)

	projects := svc.Load(ctx)
	st := svc.SyncStatus()
	log.Info("projects loaded", zap.Int("count", len(projects)), zap.String("source", string(st.Source)))

	unsubscribe, err := svc.Subscribe(ctx)
	if err != nil {
		log.Warn("change feed unavailable", zap.Error(err))
	} else {
		defer unsubscribe()
	}

	if rt.Remote.Enabled() && cfg.ReconcileSchedule != "" {
		rec, err := services.NewReconciler(cfg.ReconcileSchedule, svc, logger.Named("reconciler"))
		if err != nil {
			log.Fatal("Invalid reconcile schedule", zap.Error(err))
		}
		rec.Start()
		defer rec.Stop()
	}

	experts, err := models.LoadExperts()
	if err != nil {
		log.Fatal("Failed to load expert catalog", zap.Error(err))
	}
	validate := validators.New()

	checks := map[string]handlers.ReadyCheck{}
	for name, check := range rt.Checks() {
		checks[name] = handlers.ReadyCheck(check)
	}

	limiter := mw.NewRateLimiter(10, 20)
	defer limiter.Close()

	// Create router with dependencies
	router := api.NewRouter(api.Dependencies{
		HealthHandler:   handlers.NewHealthHandler(checks),
		ProjectsHandler: handlers.NewProjectsHandler(svc, gen, experts, sealer, validate),
		ExpertsHandler:  handlers.NewExpertsHandler(experts),
		PortalHandler:   handlers.NewPortalHandler(svc),
		SyncHandler:     handlers.NewSyncHandler(svc),
		RateLimiter:     limiter,
		AllowedOrigins:  cfg.AllowedOrigins(),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
