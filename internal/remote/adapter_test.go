package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/navin3756/shipit/internal/models"
	appErr "github.com/navin3756/shipit/pkg/errors"
)

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Upsert(ctx context.Context, row *models.ProjectRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockProjectRepository) Update(ctx context.Context, row *models.ProjectRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockProjectRepository) ReadAll(ctx context.Context) ([]models.ProjectRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectRow), args.Error(1)
}

type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) Publish(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFeed) Subscribe(ctx context.Context, onChange func()) (Subscription, error) {
	args := m.Called(ctx, onChange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Subscription), args.Error(1)
}

type closeCounter struct{ closed int }

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func testProject(id string) models.Project {
	return models.Project{
		ID:         id,
		RepoName:   "demo",
		RepoOwner:  "acme",
		Status:     models.StatusBlueprintReady,
		CreatedAt:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Milestones: models.DefaultMilestones(),
	}
}

func TestDisabledAdapterIsNoop(t *testing.T) {
	ctx := context.Background()
	a := Disabled()

	require.False(t, a.Enabled())
	list, err := a.ReadAll(ctx)
	require.NoError(t, err)
	require.Nil(t, list)
	require.NoError(t, a.Insert(ctx, testProject("p")))
	require.NoError(t, a.Update(ctx, testProject("p")))

	unsubscribe, err := a.Subscribe(ctx, func() { t.Fatal("must not be called") })
	require.NoError(t, err)
	unsubscribe()

	var nilAdapter *Adapter
	require.False(t, nilAdapter.Enabled())
}

func TestReadAllConvertsRows(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectRepository)
	a := NewAdapter(repo, nil, nil)

	good, err := models.ToRow(testProject("good"))
	require.NoError(t, err)
	bad := models.ProjectRow{ID: "bad", Messages: []byte(`"oops"`)}
	repo.On("ReadAll", mock.Anything).Return([]models.ProjectRow{good, bad}, nil)

	list, err := a.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "good", list[0].ID)
	require.True(t, list[0].IsGitHubConnected)
	repo.AssertExpectations(t)
}

func TestReadAllPropagatesFailure(t *testing.T) {
	repo := new(MockProjectRepository)
	a := NewAdapter(repo, nil, nil)
	repo.On("ReadAll", mock.Anything).Return(nil, appErr.New(appErr.CodeUnavailable, "down"))

	_, err := a.ReadAll(context.Background())
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}

func TestInsertUpsertsAndPublishes(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectRepository)
	feed := new(MockFeed)
	a := NewAdapter(repo, feed, nil)

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(r *models.ProjectRow) bool {
		return r.ID == "p1" && r.RepoName == "demo" && r.Status == "Blueprint Ready"
	})).Return(nil).Once()
	feed.On("Publish", mock.Anything).Return(nil).Once()

	require.NoError(t, a.Insert(ctx, testProject("p1")))
	mock.AssertExpectationsForObjects(t, repo, feed)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("updates existing row", func(t *testing.T) {
		repo := new(MockProjectRepository)
		feed := new(MockFeed)
		a := NewAdapter(repo, feed, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
		feed.On("Publish", mock.Anything).Return(errors.New("redis down")).Once()

		require.NoError(t, a.Update(ctx, testProject("p1")))
		mock.AssertExpectationsForObjects(t, repo, feed)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("inserts missing row", func(t *testing.T) {
		repo := new(MockProjectRepository)
		a := NewAdapter(repo, nil, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(appErr.New(appErr.CodeNotFound, "entity not found")).Once()
		repo.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

		require.NoError(t, a.Update(ctx, testProject("p1")))
		repo.AssertExpectations(t)
	})

	t.Run("returns remote failure", func(t *testing.T) {
		repo := new(MockProjectRepository)
		feed := new(MockFeed)
		a := NewAdapter(repo, feed, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(appErr.New(appErr.CodeUnavailable, "timeout")).Once()

		err := a.Update(ctx, testProject("p1"))
		require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
		feed.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestSubscribeReturnsUnsubscribe(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectRepository)
	feed := new(MockFeed)
	a := NewAdapter(repo, feed, nil)

	sub := &closeCounter{}
	feed.On("Subscribe", mock.Anything, mock.Anything).Return(sub, nil).Once()

	unsubscribe, err := a.Subscribe(ctx, func() {})
	require.NoError(t, err)
	unsubscribe()
	require.Equal(t, 1, sub.closed)

	feed.On("Subscribe", mock.Anything, mock.Anything).Return(nil, errors.New("refused")).Once()
	_, err = a.Subscribe(ctx, func() {})
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}
