package ports

import (
	"context"

	"catalog-audit-shopify-layer/internal/domain"
)

// CatalogClient defines the catalog-provider operations the core consumes.
// Implementations map provider records into ProductSnapshots and surface
// field-level rejection of an update as a domain.RemoteUpdateError.
type CatalogClient interface {
	// ListProducts fetches the shop's products as analysis snapshots.
	ListProducts(ctx context.Context, shop string, accessToken string) ([]domain.ProductSnapshot, error)

	// FetchProduct fetches a single product snapshot.
	FetchProduct(ctx context.Context, shop string, accessToken string, productID uint64) (*domain.ProductSnapshot, error)

	// UpdateProduct pushes the proposed fields as one combined update
	// (title, description, SEO, tags, product type). The mutation is a full
	// overwrite of those fields, so repeating it is safe.
	UpdateProduct(ctx context.Context, shop string, accessToken string, productID uint64, fields domain.ProposedFields) error
}
