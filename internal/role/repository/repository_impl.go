package repository

import (
	"context"

	"github.com/smallbiznis/tenancy/internal/role/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.Role]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountTenantGrants(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenant_roles WHERE role_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountLinkedAuthorizations(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM linked_authorizations WHERE role_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}
