package action

import (
	"github.com/smallbiznis/tenancy/internal/action/repository"
	"github.com/smallbiznis/tenancy/internal/action/service"
	"go.uber.org/fx"
)

var Module = fx.Module("action.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
