// Package repository provides the gorm operations shared by every entity
// repository. Methods take the *gorm.DB to run on, so callers decide whether a
// call joins a transaction.
package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store[T any] struct{}

// FindByID returns nil without error when no row has the id.
func (Store[T]) FindByID(ctx context.Context, db *gorm.DB, id int64) (*T, error) {
	var result T
	err := db.WithContext(ctx).Where("id = ?", id).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (Store[T]) FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	var result []T
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&result).Error
	return result, err
}

func (Store[T]) Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]T, error) {
	var result []T
	stmt := db.WithContext(ctx).Model(new(T))
	if where != nil {
		stmt = stmt.Where(where)
	}
	if len(opts) == 0 {
		stmt = stmt.Order("id")
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	err := stmt.Find(&result).Error
	return result, err
}

// FindOne returns the first row in id order, or nil when nothing matches.
func (Store[T]) FindOne(ctx context.Context, db *gorm.DB, where clause.Expression) (*T, error) {
	var result T
	err := db.WithContext(ctx).Where(where).Order("id").Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (s Store[T]) Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	count, err := s.Count(ctx, db, clause.Eq{Column: clause.Column{Name: "id"}, Value: id})
	return count > 0, err
}

func (Store[T]) Count(ctx context.Context, db *gorm.DB, where clause.Expression) (int64, error) {
	var count int64
	stmt := db.WithContext(ctx).Model(new(T))
	if where != nil {
		stmt = stmt.Where(where)
	}
	err := stmt.Count(&count).Error
	return count, err
}

func (Store[T]) Create(ctx context.Context, db *gorm.DB, resource *T) error {
	return db.WithContext(ctx).Create(resource).Error
}

// Update writes every column of resource, zero values included.
func (Store[T]) Update(ctx context.Context, db *gorm.DB, resource *T) error {
	return db.WithContext(ctx).Model(resource).Select("*").Omit("created_at").Updates(resource).Error
}

// Delete removes the given ids and reports how many rows went away.
func (Store[T]) Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Where("id IN ?", ids).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (Store[T]) DeleteWhere(ctx context.Context, db *gorm.DB, where clause.Expression) (int64, error) {
	res := db.WithContext(ctx).Where(where).Delete(new(T))
	return res.RowsAffected, res.Error
}
