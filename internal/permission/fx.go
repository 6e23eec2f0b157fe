package permission

import (
	"github.com/smallbiznis/tenancy/internal/permission/repository"
	"github.com/smallbiznis/tenancy/internal/permission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("permission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
