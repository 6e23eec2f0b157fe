package repository

import (
	"context"

	"github.com/smallbiznis/tenancy/internal/action/domain"
	"github.com/smallbiznis/tenancy/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.Action]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountPermissions(ctx context.Context, db *gorm.DB, ids []int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM permissions WHERE action_id IN ?`,
		ids,
	).Scan(&count).Error
	return count, err
}
