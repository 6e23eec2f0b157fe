package domain

import (
	"context"

	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Role, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Role, error)
	FindOne(ctx context.Context, db *gorm.DB, where clause.Expression) (*Role, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]Role, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Create(ctx context.Context, db *gorm.DB, role *Role) error
	Update(ctx context.Context, db *gorm.DB, role *Role) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)

	CountTenantGrants(ctx context.Context, db *gorm.DB, id int64) (int64, error)
	CountLinkedAuthorizations(ctx context.Context, db *gorm.DB, id int64) (int64, error)
}
