package migration

import (
	"go.uber.org/fx"
)

// Module migrates the schema while the graph is being built, so seed and
// every service start against the current tables.
var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)
