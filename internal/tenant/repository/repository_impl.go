package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/tenancy/internal/tenant/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.Tenant]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountRoots(ctx context.Context, db *gorm.DB, excludeID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenants WHERE tenant_type = ? AND id <> ?`,
		domain.TenantTypeRoot,
		excludeID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountLiveChildren(ctx context.Context, db *gorm.DB, id int64, now time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenants
		 WHERE parent_id = ? AND (tenant_end IS NULL OR tenant_end > ?)`,
		id,
		now,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountRoleGrants(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenant_roles WHERE tenant_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountLiveClientDependents(ctx context.Context, db *gorm.DB, id int64, now time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenants
		 WHERE client_id = ? AND id <> ? AND (tenant_end IS NULL OR tenant_end > ?)`,
		id,
		id,
		now,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountLinkedAuthorizations(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM linked_authorizations WHERE tenant_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}
