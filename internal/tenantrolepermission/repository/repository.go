package repository

import (
	"context"

	permissiondomain "github.com/smallbiznis/tenancy/internal/permission/domain"
	tenantroledomain "github.com/smallbiznis/tenancy/internal/tenantrole/domain"
	"github.com/smallbiznis/tenancy/internal/tenantrolepermission/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	repository.Store[domain.TenantRolePermission]
	tenantRoles repository.Store[tenantroledomain.TenantRole]
	permissions repository.Store[permissiondomain.Permission]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) TenantRoleID(ctx context.Context, db *gorm.DB, tenantID, roleID int64) (int64, error) {
	tr, err := r.tenantRoles.FindOne(ctx, db, clause.And(
		clause.Eq{Column: clause.Column{Name: "tenant_id"}, Value: tenantID},
		clause.Eq{Column: clause.Column{Name: "role_id"}, Value: roleID},
	))
	if err != nil || tr == nil {
		return 0, err
	}
	return tr.ID.Int64(), nil
}

func (r *repo) TenantRoleExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return r.tenantRoles.Exists(ctx, db, id)
}

func (r *repo) PermissionExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return r.permissions.Exists(ctx, db, id)
}

func (r *repo) PermissionIDs(ctx context.Context, db *gorm.DB, tenantRoleID int64) ([]int64, error) {
	var ids []int64
	err := db.WithContext(ctx).Model(&domain.TenantRolePermission{}).
		Where("tenant_role_id = ?", tenantRoleID).
		Order("permission_id").
		Pluck("permission_id", &ids).Error
	return ids, err
}
