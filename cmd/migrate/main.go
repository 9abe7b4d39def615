package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/repository"
	"github.com/navin3756/shipit/pkg/config"
	"github.com/navin3756/shipit/pkg/database"
	"github.com/navin3756/shipit/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.RemoteConfigured() {
		log.Fatal("REMOTE_URL and REMOTE_KEY must be set to run migrations")
	}
	dsn, err := database.RemoteDSN(cfg.RemoteURL, cfg.RemoteKey)
	if err != nil {
		log.Fatal("invalid remote configuration", zap.Error(err))
	}

	db, err := database.OpenPostgres(context.Background(), database.Options{DSN: dsn, AppEnv: cfg.AppEnv, Logger: log})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := repository.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, "migrations completed")
}
