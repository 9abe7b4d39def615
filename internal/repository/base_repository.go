package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appErr "github.com/navin3756/shipit/pkg/errors"
)

// BaseRepository defines the write operations shared by remote tables keyed by id.
type BaseRepository[T any] interface {
	Upsert(ctx context.Context, obj *T) error
	Update(ctx context.Context, obj *T) error
}

type baseRepository[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) BaseRepository[T] {
	return &baseRepository[T]{db: db}
}

// Upsert inserts obj or overwrites every column of the row with the same id.
func (r *baseRepository[T]) Upsert(ctx context.Context, obj *T) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(obj).Error
	if err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "upsert entity failed")
	}
	return nil
}

// Update overwrites all columns of an existing row except created_at.
func (r *baseRepository[T]) Update(ctx context.Context, obj *T) error {
	res := r.db.WithContext(ctx).Model(obj).Select("*").Omit("created_at").Updates(obj)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeUnavailable, "update entity failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "entity not found")
	}
	return nil
}
