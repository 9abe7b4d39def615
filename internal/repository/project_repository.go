package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/navin3756/shipit/internal/models"
	appErr "github.com/navin3756/shipit/pkg/errors"
)

type ProjectRepository interface {
	BaseRepository[models.ProjectRow]
	ReadAll(ctx context.Context) ([]models.ProjectRow, error)
}

type projectRepository struct {
	BaseRepository[models.ProjectRow]
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{BaseRepository: NewBaseRepository[models.ProjectRow](db), db: db}
}

// ReadAll returns every project row, newest first.
func (r *projectRepository) ReadAll(ctx context.Context) ([]models.ProjectRow, error) {
	var out []models.ProjectRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "list projects failed")
	}
	return out, nil
}
