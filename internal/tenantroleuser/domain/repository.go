package domain

import (
	"context"
	"time"

	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*TenantRoleUser, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]TenantRoleUser, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]TenantRoleUser, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Create(ctx context.Context, db *gorm.DB, tru *TenantRoleUser) error
	Update(ctx context.Context, db *gorm.DB, tru *TenantRoleUser) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)

	FindTenantRole(ctx context.Context, db *gorm.DB, id int64) (*tenantroledomain.TenantRole, error)
	// TenantRoleID returns zero when the role is not granted to the tenant.
	TenantRoleID(ctx context.Context, db *gorm.DB, tenantID, roleID int64) (int64, error)
	// EnsureActiveTenant creates the user's unflagged record for the tenant
	// unless one exists.
	EnsureActiveTenant(ctx context.Context, db *gorm.DB, id, userID, tenantID int64, now time.Time) error
	// ReleaseActiveTenant drops the user's record for the tenant once no
	// tenant role user links them.
	ReleaseActiveTenant(ctx context.Context, db *gorm.DB, userID, tenantID int64) error
	TenantIDs(ctx context.Context, db *gorm.DB, userID int64, roleID *int64) ([]int64, error)
	UserIDs(ctx context.Context, db *gorm.DB, tenantID int64, roleID *int64, offset, limit int) ([]int64, int64, error)
}
