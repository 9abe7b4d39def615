//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/repository"
	"github.com/navin3756/shipit/internal/testutil"
	appErr "github.com/navin3756/shipit/pkg/errors"
)

func row(t *testing.T, id string, created time.Time) *models.ProjectRow {
	t.Helper()
	r, err := models.ToRow(models.Project{
		ID:         id,
		RepoName:   "repo-" + id,
		RepoOwner:  "acme",
		Status:     models.StatusBlueprintReady,
		CreatedAt:  created,
		Milestones: models.DefaultMilestones(),
	})
	require.NoError(t, err)
	return &r
}

func TestProjectRepository(t *testing.T) {
	_, db := testutil.Postgres(t)
	repo := repository.NewProjectRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, row(t, "older", base)))
	require.NoError(t, repo.Upsert(ctx, row(t, "newer", base.Add(time.Hour))))

	rows, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "newer", rows[0].ID)
	require.Equal(t, "older", rows[1].ID)

	t.Run("upsert overwrites", func(t *testing.T) {
		r := row(t, "older", base)
		r.Status = string(models.StatusInstalling)
		require.NoError(t, repo.Upsert(ctx, r))

		rows, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, string(models.StatusInstalling), rows[1].Status)
	})

	t.Run("update keeps created_at", func(t *testing.T) {
		r := row(t, "newer", base.Add(48*time.Hour))
		r.ExpertID = "e1"
		r.TechnicianFee = models.Float(200)
		require.NoError(t, repo.Update(ctx, r))

		rows, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		require.Equal(t, "newer", rows[0].ID)
		require.Equal(t, "e1", rows[0].ExpertID)
		require.Equal(t, 200.0, *rows[0].TechnicianFee)
		require.True(t, rows[0].CreatedAt.Equal(base.Add(time.Hour)))

		p, err := models.FromRow(rows[0])
		require.NoError(t, err)
		require.Len(t, p.Milestones, 4)
	})

	t.Run("update of missing row", func(t *testing.T) {
		err := repo.Update(ctx, row(t, "ghost", base))
		require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	})
}
