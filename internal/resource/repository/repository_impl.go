package repository

import (
	"context"

	"github.com/smallbiznis/tenancy/internal/resource/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.Resource]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountPermissions(ctx context.Context, db *gorm.DB, ids []int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM permissions WHERE resource_id IN ?`,
		ids,
	).Scan(&count).Error
	return count, err
}
