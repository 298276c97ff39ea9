package vehicle

import (
	"go.uber.org/fx"

	"github.com/treadstone/maxtt-billing/internal/config"
)

var Module = fx.Module("vehicle",
	fx.Provide(func(h *config.ChartHolder) (*Registry, error) {
		return NewRegistry(h.Chart())
	}),
)
