package domain

import (
	"context"

	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*TenantRolePermission, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]TenantRolePermission, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]TenantRolePermission, error)
	FindOne(ctx context.Context, db *gorm.DB, where clause.Expression) (*TenantRolePermission, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Create(ctx context.Context, db *gorm.DB, trp *TenantRolePermission) error
	Update(ctx context.Context, db *gorm.DB, trp *TenantRolePermission) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)

	// TenantRoleID returns zero when the role is not granted to the tenant.
	TenantRoleID(ctx context.Context, db *gorm.DB, tenantID, roleID int64) (int64, error)
	TenantRoleExists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	PermissionExists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	PermissionIDs(ctx context.Context, db *gorm.DB, tenantRoleID int64) ([]int64, error)
}
