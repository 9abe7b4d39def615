package services

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/models"
)

// Loader reloads the full project list.
type Loader interface {
	Load(ctx context.Context) []models.Project
}

// Reconciler periodically reloads the store so a missed change notification
// is eventually picked up.
type Reconciler struct {
	cron   *cron.Cron
	loader Loader
	log    *zap.Logger
}

// NewReconciler schedules reloads with a standard cron spec or a descriptor
// such as "@every 5m".
func NewReconciler(schedule string, loader Loader, log *zap.Logger) (*Reconciler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Reconciler{cron: cron.New(), loader: loader, log: log}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reconciler) Start() {
	r.cron.Start()
	r.log.Info("reconciler started", zap.Int("jobs", len(r.cron.Entries())))
}

// Stop halts the schedule and returns a context that is done once a running
// reload has finished.
func (r *Reconciler) Stop() context.Context {
	return r.cron.Stop()
}

func (r *Reconciler) run() {
	projects := r.loader.Load(context.Background())
	r.log.Debug("reconciled projects", zap.Int("count", len(projects)))
}
