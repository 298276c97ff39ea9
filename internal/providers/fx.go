package providers

import (
	"go.uber.org/fx"

	"github.com/treadstone/maxtt-billing/internal/providers/pdf"
)

var Module = fx.Module("providers",
	fx.Provide(pdf.New),
)
