package uniqueness

import "go.uber.org/fx"

var Module = fx.Module("uniqueness",
	fx.Provide(New),
)
