// Package seed bootstraps the system actions, resources and the ROOT tenant.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	actiondomain "github.com/smallbiznis/tenancy/internal/action/domain"
	resourcedomain "github.com/smallbiznis/tenancy/internal/resource/domain"
	tenantdomain "github.com/smallbiznis/tenancy/internal/tenant/domain"
	"gorm.io/gorm"
)

// Resources are the system resources every deployment starts with.
var Resources = []string{"tenant", "user", "role", "permission"}

type Root struct {
	Name string
	Key  string
}

// Ensure creates whatever part of the bootstrap data is missing. Running it
// again changes nothing.
func Ensure(ctx context.Context, db *gorm.DB, node *snowflake.Node, root Root, now time.Time) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range actiondomain.ActionTypes {
			if err := ensureAction(ctx, tx, node, t, now); err != nil {
				return err
			}
		}
		for _, name := range Resources {
			if err := ensureResource(ctx, tx, node, name, now); err != nil {
				return err
			}
		}
		return ensureRoot(ctx, tx, node, root, now)
	})
}

func ensureAction(ctx context.Context, tx *gorm.DB, node *snowflake.Node, t actiondomain.ActionType, now time.Time) error {
	var action actiondomain.Action
	err := tx.WithContext(ctx).Where("name = ?", string(t)).First(&action).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	action = actiondomain.Action{
		ID:        node.Generate(),
		Name:      string(t),
		Type:      t,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&action).Error
}

func ensureResource(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string, now time.Time) error {
	var resource resourcedomain.Resource
	err := tx.WithContext(ctx).Where("name = ?", name).First(&resource).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	resource = resourcedomain.Resource{
		ID:        node.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&resource).Error
}

// ensureRoot leaves an existing ROOT tenant alone, whatever its name.
func ensureRoot(ctx context.Context, tx *gorm.DB, node *snowflake.Node, root Root, now time.Time) error {
	var count int64
	err := tx.WithContext(ctx).Model(&tenantdomain.Tenant{}).
		Where("tenant_type = ?", tenantdomain.TenantTypeRoot).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	name := root.Name
	if name == "" {
		name = "root"
	}
	key := slug.Make(root.Key)
	if key == "" {
		key = slug.Make(name)
	}
	tenant := tenantdomain.Tenant{
		ID:        node.Generate(),
		Name:      name,
		Key:       key,
		Type:      tenantdomain.TenantTypeRoot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&tenant).Error
}
