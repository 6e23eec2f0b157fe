package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/clock"
	"github.com/smallbiznis/tenancy/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Config config.Config
	Clock  clock.Clock `optional:"true"`
}

// Module must be registered after the migration module.
var Module = fx.Module("seed",
	fx.Invoke(func(p Params) error {
		root := Root{Name: p.Config.RootTenant.Name, Key: p.Config.RootTenant.Key}
		if err := Ensure(context.Background(), p.DB, p.GenID, root, clock.Or(p.Clock).Now()); err != nil {
			return err
		}
		p.Log.Named("seed").Info("bootstrap data ensured", zap.String("root_tenant", root.Name))
		return nil
	}),
)
