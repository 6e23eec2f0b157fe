package tenantrolepermission

import (
	"github.com/smallbiznis/tenancy/internal/tenantrolepermission/repository"
	"github.com/smallbiznis/tenancy/internal/tenantrolepermission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenantrolepermission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
