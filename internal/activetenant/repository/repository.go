package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/tenancy/internal/activetenant/domain"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.ActiveTenant]
	tenants repository.Store[tenantdomain.Tenant]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindTenant(ctx context.Context, db *gorm.DB, id int64) (*tenantdomain.Tenant, error) {
	return r.tenants.FindByID(ctx, db, id)
}

func (r *repo) Memberships(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Membership, error) {
	var rows []domain.Membership
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT t.id AS tenant_id, t.name AS tenant_name FROM tenants t
		JOIN tenant_roles tr ON tr.tenant_id = t.id
		JOIN tenant_role_users tru ON tru.tenant_role_id = tr.id
		WHERE tru.user_id = ?
		ORDER BY t.id`,
		userID,
	).Scan(&rows).Error
	return rows, err
}

// Activate clears before it sets so a per-row unique index on the active
// flag never sees two active records. Callers run it inside a transaction.
func (r *repo) Activate(ctx context.Context, db *gorm.DB, userID, tenantID int64, now time.Time) error {
	err := db.WithContext(ctx).Exec(
		`UPDATE active_tenants SET is_active = ?, updated_at = ? WHERE user_id = ? AND is_active = ? AND tenant_id <> ?`,
		false, now, userID, true, tenantID,
	).Error
	if err != nil || tenantID == 0 {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE active_tenants SET is_active = ?, updated_at = ? WHERE user_id = ? AND tenant_id = ? AND is_active = ?`,
		true, now, userID, tenantID, false,
	).Error
}
