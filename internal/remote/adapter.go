// Package remote mirrors lifecycle writes into the shared projects table and
// relays change notifications back to the process.
package remote

import (
	"context"

	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/repository"
	appErr "github.com/navin3756/shipit/pkg/errors"
	"github.com/navin3756/shipit/pkg/logger"
)

// Adapter is the single remote client of a process. A disabled adapter turns
// every operation into a no-op.
type Adapter struct {
	repo repository.ProjectRepository
	feed ChangeFeed
	log  *zap.Logger
}

// NewAdapter returns an active adapter. feed may be nil when change
// notifications are not wanted.
func NewAdapter(repo repository.ProjectRepository, feed ChangeFeed, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{repo: repo, feed: feed, log: log}
}

// Disabled returns the adapter used in local-only mode.
func Disabled() *Adapter {
	return &Adapter{log: zap.NewNop()}
}

// Enabled reports whether remote sync is active.
func (a *Adapter) Enabled() bool {
	return a != nil && a.repo != nil
}

// ReadAll returns every remote project, newest first. Rows that cannot be
// decoded are skipped and logged.
func (a *Adapter) ReadAll(ctx context.Context) ([]models.Project, error) {
	if !a.Enabled() {
		return nil, nil
	}
	rows, err := a.repo.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(rows))
	for _, row := range rows {
		p, err := models.FromRow(row)
		if err != nil {
			a.log.Error("skipping malformed project row", logger.Project(row.ID), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Insert writes a new project, overwriting any row with the same id.
func (a *Adapter) Insert(ctx context.Context, p models.Project) error {
	if !a.Enabled() {
		return nil
	}
	row, err := models.ToRow(p)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "encode project")
	}
	if err := a.repo.Upsert(ctx, &row); err != nil {
		return err
	}
	a.publish(ctx)
	return nil
}

// Update overwrites the stored row of p. A project that never reached the
// remote table (created while offline) is inserted instead.
func (a *Adapter) Update(ctx context.Context, p models.Project) error {
	if !a.Enabled() {
		return nil
	}
	row, err := models.ToRow(p)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "encode project")
	}
	err = a.repo.Update(ctx, &row)
	if appErr.IsCode(err, appErr.CodeNotFound) {
		a.log.Info("project missing remotely, inserting", logger.Project(p.ID))
		err = a.repo.Upsert(ctx, &row)
	}
	if err != nil {
		return err
	}
	a.publish(ctx)
	return nil
}

// Subscribe registers onChange for remote changes and returns the function
// that cancels it.
func (a *Adapter) Subscribe(ctx context.Context, onChange func()) (func(), error) {
	if !a.Enabled() || a.feed == nil {
		return func() {}, nil
	}
	sub, err := a.feed.Subscribe(ctx, onChange)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "subscribe to project changes")
	}
	return func() {
		if err := sub.Close(); err != nil {
			a.log.Warn("closing change subscription", zap.Error(err))
		}
	}, nil
}

func (a *Adapter) publish(ctx context.Context) {
	if a.feed == nil {
		return
	}
	if err := a.feed.Publish(ctx); err != nil {
		a.log.Warn("change notification not published", zap.Error(err))
	}
}
