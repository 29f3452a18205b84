package ports

import (
	"context"

	"catalog-audit-shopify-layer/internal/domain"
)

// TextGenerator defines the generative provider the enhancement workflow
// consumes. Implementations must bound the call with a timeout and return
// domain.ErrProviderTimeout when it elapses. The raw response is parsed by the
// workflow, not here.
type TextGenerator interface {
	GenerateProductData(ctx context.Context, product domain.ProductSnapshot) (string, error)
}
