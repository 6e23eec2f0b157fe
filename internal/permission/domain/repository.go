package domain

import (
	"context"

	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Permission, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Permission, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]Permission, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Create(ctx context.Context, db *gorm.DB, permission *Permission) error
	Update(ctx context.Context, db *gorm.DB, permission *Permission) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)

	// FindByNames resolves a permission through the names of its action and
	// resource. It returns nil when no permission pairs them.
	FindByNames(ctx context.Context, db *gorm.DB, actionName, resourceName string) (*Permission, error)
	ActionExists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	ResourceExists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	CountRoleGrants(ctx context.Context, db *gorm.DB, id int64) (int64, error)
	CountLinkedAuthorizations(ctx context.Context, db *gorm.DB, id int64) (int64, error)
}
