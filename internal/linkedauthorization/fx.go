package linkedauthorization

import (
	"github.com/smallbiznis/tenancy/internal/linkedauthorization/repository"
	"github.com/smallbiznis/tenancy/internal/linkedauthorization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("linkedauthorization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
