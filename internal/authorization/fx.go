package authorization

import (
	"github.com/smallbiznis/tenancy/internal/authorization/decision"
	"go.uber.org/fx"
)

var Module = fx.Module("authorization",
	decision.Module,
	fx.Provide(NewResolver),
)
