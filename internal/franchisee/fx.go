package franchisee

import (
	"go.uber.org/fx"

	"github.com/treadstone/maxtt-billing/internal/franchisee/service"
)

var Module = fx.Module("franchisee.service",
	fx.Provide(service.NewService),
)
