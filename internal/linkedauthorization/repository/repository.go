package repository

import (
	"context"

	"github.com/smallbiznis/tenancy/internal/linkedauthorization/domain"
	permissiondomain "github.com/smallbiznis/tenancy/internal/permission/domain"
	roledomain "github.com/smallbiznis/tenancy/internal/role/domain"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.LinkedAuthorization]
	tenants     repository.Store[tenantdomain.Tenant]
	roles       repository.Store[roledomain.Role]
	permissions repository.Store[permissiondomain.Permission]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) TenantExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return r.tenants.Exists(ctx, db, id)
}

func (r *repo) RoleExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return r.roles.Exists(ctx, db, id)
}

func (r *repo) PermissionExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return r.permissions.Exists(ctx, db, id)
}

func (r *repo) CountRoleGrants(ctx context.Context, db *gorm.DB, userID, tenantID int64, roleName string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM linked_authorizations la
		JOIN roles r ON r.id = la.role_id
		WHERE la.user_id = ? AND la.tenant_id = ? AND r.name = ?`,
		userID, tenantID, roleName,
	).Scan(&count).Error
	return count, err
}
