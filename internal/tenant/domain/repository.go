package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/tenancy/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Tenant, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Tenant, error)
	Find(ctx context.Context, db *gorm.DB, where clause.Expression, opts ...option.QueryOption) ([]Tenant, error)
	Exists(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Create(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	Update(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	Delete(ctx context.Context, db *gorm.DB, ids ...int64) (int64, error)

	// CountRoots counts ROOT tenants other than excludeID.
	CountRoots(ctx context.Context, db *gorm.DB, excludeID int64) (int64, error)
	// CountLiveChildren counts children whose validity window is still open
	// at now.
	CountLiveChildren(ctx context.Context, db *gorm.DB, id int64, now time.Time) (int64, error)
	CountRoleGrants(ctx context.Context, db *gorm.DB, id int64) (int64, error)
	// CountLiveClientDependents counts open tenants naming id as their client.
	CountLiveClientDependents(ctx context.Context, db *gorm.DB, id int64, now time.Time) (int64, error)
	CountLinkedAuthorizations(ctx context.Context, db *gorm.DB, id int64) (int64, error)
}
