package tenantrole

import (
	"github.com/smallbiznis/tenancy/internal/tenantrole/repository"
	"github.com/smallbiznis/tenancy/internal/tenantrole/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenantrole.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
