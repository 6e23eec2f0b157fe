package manager

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tenancy/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type backendParams struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Redis  *redis.Client `optional:"true"`
}

// NewStore shares sessions through redis when a client is configured and
// keeps them in process otherwise.
func NewStore(p backendParams) Store {
	if p.Redis != nil {
		return NewRedisStore(p.Redis, p.Config.Session.TTL)
	}
	p.Log.Info("session store running in memory", zap.Int("size", p.Config.Session.CacheSize))
	return NewMemoryStore(p.Config.Session.CacheSize, p.Config.Session.TTL)
}

func NewLocker(p backendParams) Locker {
	if p.Redis != nil {
		return NewRedisLocker(p.Redis, p.Config.Session.SwitchLockTTL)
	}
	return NewKeyedMutex()
}

var Module = fx.Module("activetenant.manager",
	fx.Provide(NewStore, NewLocker, New),
)
