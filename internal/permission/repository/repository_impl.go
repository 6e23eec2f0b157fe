package repository

import (
	"context"

	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	"github.com/smallbiznis/tenancy/internal/permission/domain"
	resourcedomain "github.com/smallbiznis/tenancy/internal/resource/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.Permission]
	actions   repository.Store[actiondomain.Action]
	resources repository.Store[resourcedomain.Resource]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByNames(ctx context.Context, db *gorm.DB, actionName, resourceName string) (*domain.Permission, error) {
	var items []domain.Permission
	err := db.WithContext(ctx).Raw(
		`SELECT p.id, p.name, p.action_id, p.resource_id, p.created_at, p.updated_at
		 FROM permissions p
		 JOIN actions a ON a.id = p.action_id
		 JOIN resources r ON r.id = p.resource_id
		 WHERE a.name = ? AND r.name = ?
		 ORDER BY p.id
		 LIMIT 1`,
		actionName,
		resourceName,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) ActionExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return r.actions.Exists(ctx, db, id)
}

func (r *repo) ResourceExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return r.resources.Exists(ctx, db, id)
}

func (r *repo) CountRoleGrants(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenant_role_permissions WHERE permission_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountLinkedAuthorizations(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM linked_authorizations WHERE permission_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}
