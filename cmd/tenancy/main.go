package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/action"
	"github.com/smallbiznis/tenancy/internal/activetenant"
	"github.com/smallbiznis/tenancy/internal/authorization"
	"github.com/smallbiznis/tenancy/internal/cache"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/config"
	"github.com/smallbiznis/tenancy/internal/linkedauthorization"
	"github.com/smallbiznis/tenancy/internal/migration"
	"github.com/smallbiznis/tenancy/internal/observability"
	"github.com/smallbiznis/tenancy/internal/permission"
	"github.com/smallbiznis/tenancy/internal/resource"
	"github.com/smallbiznis/tenancy/internal/role"
	"github.com/smallbiznis/tenancy/internal/seed"
	"github.com/smallbiznis/tenancy/internal/server"
	"github.com/smallbiznis/tenancy/internal/tenant"
	"github.com/smallbiznis/tenancy/internal/tenantrole"
	"github.com/smallbiznis/tenancy/internal/tenantrolepermission"
	"github.com/smallbiznis/tenancy/internal/tenantroleuser"
	"github.com/smallbiznis/tenancy/internal/uniqueness"
	"github.com/smallbiznis/tenancy/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		seed.Module,
		cache.Module,
		clock.Module,
		uniqueness.Module,

		// Authorization core
		tenant.Module,
		role.Module,
		action.Module,
		resource.Module,
		permission.Module,
		tenantrole.Module,
		tenantrolepermission.Module,
		tenantroleuser.Module,
		linkedauthorization.Module,
		activetenant.Module,
		authorization.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}
	return node, nil
}
