package activetenant

import (
	"github.com/smallbiznis/tenancy/internal/activetenant/manager"
	"github.com/smallbiznis/tenancy/internal/activetenant/repository"
	"github.com/smallbiznis/tenancy/internal/activetenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activetenant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	manager.Module,
)
