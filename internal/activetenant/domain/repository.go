package domain

import (
	"context"
	"time"

	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*ActiveTenant, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]ActiveTenant, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]ActiveTenant, error)
	FindOne(ctx context.Context, db *gorm.DB, where clause.Expression) (*ActiveTenant, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Count(ctx context.Context, db *gorm.DB, where clause.Expression) (int64, error)
	Create(ctx context.Context, db *gorm.DB, record *ActiveTenant) error
	Update(ctx context.Context, db *gorm.DB, record *ActiveTenant) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)
	DeleteWhere(ctx context.Context, db *gorm.DB, where clause.Expression) (int64, error)

	// Memberships lists the tenants in which the user holds at least one
	// role, in tenant id order.
	Memberships(ctx context.Context, db *gorm.DB, userID int64) ([]Membership, error)
	FindTenant(ctx context.Context, db *gorm.DB, id int64) (*tenantdomain.Tenant, error)
	// Activate sets the flag on the user's record for tenantID and clears it
	// on every other record of the user. A zero tenantID clears them all.
	Activate(ctx context.Context, db *gorm.DB, userID, tenantID int64, now time.Time) error
}
