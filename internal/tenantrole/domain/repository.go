package domain

import (
	"context"

	roledomain "github.com/smallbiznis/tenancy/internal/role/domain"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*TenantRole, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]TenantRole, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]TenantRole, error)
	FindOne(ctx context.Context, db *gorm.DB, where clause.Expression) (*TenantRole, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Count(ctx context.Context, db *gorm.DB, where clause.Expression) (int64, error)
	Create(ctx context.Context, db *gorm.DB, tr *TenantRole) error
	Update(ctx context.Context, db *gorm.DB, tr *TenantRole) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)

	FindTenant(ctx context.Context, db *gorm.DB, id int64) (*tenantdomain.Tenant, error)
	FindRole(ctx context.Context, db *gorm.DB, id int64) (*roledomain.Role, error)
	CountUsers(ctx context.Context, db *gorm.DB, id int64) (int64, error)
	CountPermissions(ctx context.Context, db *gorm.DB, id int64) (int64, error)
	// RolesForUserTenant lists the roles the user holds within the tenant,
	// ordered by role name.
	RolesForUserTenant(ctx context.Context, db *gorm.DB, userID, tenantID int64) ([]roledomain.Role, error)
	CountUserRolesNamed(ctx context.Context, db *gorm.DB, userID, tenantID int64, names []string) (int64, error)
}
