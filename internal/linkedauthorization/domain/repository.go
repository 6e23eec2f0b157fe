package domain

import (
	"context"

	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*LinkedAuthorization, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]LinkedAuthorization, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]LinkedAuthorization, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Create(ctx context.Context, db *gorm.DB, la *LinkedAuthorization) error
	Update(ctx context.Context, db *gorm.DB, la *LinkedAuthorization) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)
	DeleteWhere(ctx context.Context, db *gorm.DB, where clause.Expression) (int64, error)

	TenantExists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	RoleExists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	PermissionExists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	CountRoleGrants(ctx context.Context, db *gorm.DB, userID, tenantID int64, roleName string) (int64, error)
}
