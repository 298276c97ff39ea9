// Package pdf renders the invoice layout plan with maroto.
package pdf

import (
	"context"

	"github.com/treadstone/maxtt-billing/internal/document"
)

// Provider renders a planned invoice into PDF bytes.
type Provider interface {
	RenderInvoice(ctx context.Context, plan document.Plan) ([]byte, error)
}
