package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/bootstrap"
	"github.com/navin3756/shipit/internal/queue/tasks"
	"github.com/navin3756/shipit/internal/services"
	"github.com/navin3756/shipit/pkg/config"
	"github.com/navin3756/shipit/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.QueueConfigured() {
		log.Fatal("REDIS_ADDR is required to run the worker")
	}

	ctx := context.Background()
	rt, err := bootstrap.Open(ctx, cfg.ForWorker(), log)
	if err != nil {
		log.Fatal("failed to initialize runtime", zap.Error(err))
	}
	defer rt.Close()

	if !rt.Remote.Enabled() {
		// Replies written here would never reach the API's in-memory list.
		log.Warn("remote sync disabled, expert replies only reach this worker's mirror")
	}

	// The worker appends replies directly, so its own scheduler is never used.
	svc := services.NewLifecycleService(rt.Store, rt.Remote, services.WithLogger(logger.Named("lifecycle")))

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Logger:      logger.Named("asynq").Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	tasks.NewExpertReplyHandler(svc).Register(mux)

	logger.L().Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency))
	if err := srv.Start(mux); err != nil {
		log.Fatal("worker failed to start", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.L().Info("shutdown signal received", zap.String("signal", sig.String()))

	// Allow in-flight tasks to finish gracefully
	srv.Shutdown()
}
