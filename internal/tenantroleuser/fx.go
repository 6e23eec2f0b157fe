package tenantroleuser

import (
	"github.com/smallbiznis/tenancy/internal/tenantroleuser/repository"
	"github.com/smallbiznis/tenancy/internal/tenantroleuser/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenantroleuser.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
