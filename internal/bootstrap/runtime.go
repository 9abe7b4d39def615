// Package bootstrap builds the process-wide dependencies shared by the API
// and the worker: mirror, store, Redis client and remote adapter.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/navin3756/shipit/internal/remote"
	"github.com/navin3756/shipit/internal/repository"
	"github.com/navin3756/shipit/internal/store"
	"github.com/navin3756/shipit/pkg/config"
	"github.com/navin3756/shipit/pkg/database"
)

// Runtime owns the long-lived clients of a process. Close releases them.
type Runtime struct {
	Mirror *store.SQLiteMirror
	Store  *store.ProjectStore
	Remote *remote.Adapter
	// Redis is nil when REDIS_ADDR is not set.
	Redis *redis.Client
	// DB is nil in local-only mode.
	DB *gorm.DB

	log     *zap.Logger
	closers []func() error
}

// Open connects everything cfg asks for. A configured but unreachable remote
// database degrades to local-only mode instead of failing.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	rt := &Runtime{log: log}

	mirror, err := store.OpenSQLiteMirror(cfg.MirrorPath, cfg.MirrorSlot)
	if err != nil {
		return nil, err
	}
	rt.Mirror = mirror
	rt.closers = append(rt.closers, mirror.Close)

	if cfg.QueueConfigured() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			rt.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		rt.Redis = rdb
		rt.closers = append(rt.closers, rdb.Close)
	}

	rt.Remote = remote.Disabled()
	if cfg.RemoteConfigured() {
		adapter, err := rt.openRemote(ctx, cfg)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Remote = adapter
	} else {
		log.Info("remote sync not configured, running local-only", zap.String("mirror", cfg.MirrorPath))
	}

	rt.Store = store.New(mirror, rt.Remote, log.Named("store"))
	return rt, nil
}

func (rt *Runtime) openRemote(ctx context.Context, cfg *config.Config) (*remote.Adapter, error) {
	dsn, err := database.RemoteDSN(cfg.RemoteURL, cfg.RemoteKey)
	if err != nil {
		return nil, fmt.Errorf("invalid remote configuration: %w", err)
	}

	var feed remote.ChangeFeed
	switch cfg.ChangeFeed {
	case "redis":
		if rt.Redis == nil {
			return nil, errors.New("CHANGE_FEED=redis requires REDIS_ADDR")
		}
		feed = remote.NewRedisFeed(rt.Redis, remote.DefaultRedisChannel, rt.log.Named("feed"))
	default:
		feed = remote.NewPGFeed(dsn, repository.ChangeChannel, rt.log.Named("feed"))
	}

	db, err := database.OpenPostgres(ctx, database.Options{DSN: dsn, AppEnv: cfg.AppEnv, Logger: rt.log})
	if err != nil {
		rt.log.Error("remote database unreachable, running local-only", zap.Error(err))
		return remote.Disabled(), nil
	}
	rt.DB = db
	if sqlDB, err := db.DB(); err == nil {
		rt.closers = append(rt.closers, sqlDB.Close)
	}

	rt.log.Info("remote sync enabled", zap.String("change_feed", cfg.ChangeFeed))
	return remote.NewAdapter(repository.NewProjectRepository(db), feed, rt.log.Named("remote")), nil
}

// Close releases clients in reverse order of creation.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn("close failed", zap.Error(err))
		}
	}
	rt.closers = nil
}

// Check probes a single dependency.
type Check func(ctx context.Context) error

// Checks returns readiness probes for every open dependency.
func (rt *Runtime) Checks() map[string]Check {
	checks := map[string]Check{
		"mirror": rt.Mirror.Ping,
	}
	if rt.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return rt.Redis.Ping(ctx).Err() }
	}
	if rt.DB != nil {
		checks["remote"] = func(ctx context.Context) error {
			sqlDB, err := rt.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	return checks
}
