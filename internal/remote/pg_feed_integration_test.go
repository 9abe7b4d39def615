//go:build integration

package remote_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/remote"
	"github.com/navin3756/shipit/internal/repository"
	"github.com/navin3756/shipit/internal/testutil"
)

func TestAdapterAgainstPostgres(t *testing.T) {
	dsn, db := testutil.Postgres(t)
	ctx := context.Background()

	feed := remote.NewPGFeed(dsn, repository.ChangeChannel, nil)
	a := remote.NewAdapter(repository.NewProjectRepository(db), feed, nil)

	var changes atomic.Int32
	unsubscribe, err := a.Subscribe(ctx, func() { changes.Add(1) })
	require.NoError(t, err)
	defer unsubscribe()

	p := models.Project{
		ID:         "p-1",
		RepoName:   "demo",
		RepoOwner:  "acme",
		Status:     models.StatusBlueprintReady,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
		Milestones: models.DefaultMilestones(),
	}
	require.NoError(t, a.Insert(ctx, p))
	require.Eventually(t, func() bool { return changes.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)

	p.Status = models.StatusInstalling
	p.ExpertID = "e1"
	require.NoError(t, a.Update(ctx, p))
	require.Eventually(t, func() bool { return changes.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)

	list, err := a.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, models.StatusInstalling, list[0].Status)
	require.Equal(t, "e1", list[0].ExpertID)
	require.True(t, list[0].IsGitHubConnected)
}
