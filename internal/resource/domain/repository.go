package domain

import (
	"context"

	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Resource, error)
	FindOne(ctx context.Context, db *gorm.DB, where clause.Expression) (*Resource, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]Resource, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Create(ctx context.Context, db *gorm.DB, resource *Resource) error
	Update(ctx context.Context, db *gorm.DB, resource *Resource) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)

	CountPermissions(ctx context.Context, db *gorm.DB, ids []int64) (int64, error)
}
