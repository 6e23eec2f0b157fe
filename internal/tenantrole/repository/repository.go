package repository

import (
	"context"

	roledomain "github.com/smallbiznis/tenancy/internal/role/domain"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.TenantRole]
	tenants repository.Store[tenantdomain.Tenant]
	roles   repository.Store[roledomain.Role]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindTenant(ctx context.Context, db *gorm.DB, id int64) (*tenantdomain.Tenant, error) {
	return r.tenants.FindByID(ctx, db, id)
}

func (r *repo) FindRole(ctx context.Context, db *gorm.DB, id int64) (*roledomain.Role, error) {
	return r.roles.FindByID(ctx, db, id)
}

func (r *repo) CountUsers(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenant_role_users WHERE tenant_role_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountPermissions(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenant_role_permissions WHERE tenant_role_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) RolesForUserTenant(ctx context.Context, db *gorm.DB, userID, tenantID int64) ([]roledomain.Role, error) {
	var roles []roledomain.Role
	err := db.WithContext(ctx).Raw(
		`SELECT r.* FROM roles r
		JOIN tenant_roles tr ON tr.role_id = r.id
		JOIN tenant_role_users tru ON tru.tenant_role_id = tr.id
		WHERE tr.tenant_id = ? AND tru.user_id = ?
		ORDER BY r.name, r.id`,
		tenantID, userID,
	).Scan(&roles).Error
	return roles, err
}

func (r *repo) CountUserRolesNamed(ctx context.Context, db *gorm.DB, userID, tenantID int64, names []string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM roles r
		JOIN tenant_roles tr ON tr.role_id = r.id
		JOIN tenant_role_users tru ON tru.tenant_role_id = tr.id
		WHERE tr.tenant_id = ? AND tru.user_id = ? AND r.name IN ?`,
		tenantID, userID, names,
	).Scan(&count).Error
	return count, err
}
