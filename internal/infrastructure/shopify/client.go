// Package shopify adapts the go-shopify REST client to the catalog port.
package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/ports"
)

type client struct {
	app    goshopify.App
	logger zerolog.Logger
}

// NewClient creates a Shopify catalog client adapter.
func NewClient(apiKey, apiSecret string, logger zerolog.Logger) ports.CatalogClient {
	return &client{
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		logger: logger,
	}
}

// createClient is a helper to create a goshopify client
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	cl, err := goshopify.NewClient(c.app, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return cl, nil
}

func (c *client) ListProducts(ctx context.Context, shop string, accessToken string) ([]domain.ProductSnapshot, error) {
	cl, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}

	products, err := cl.Product.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	collections, err := c.collectionMembership(ctx, cl)
	if err != nil {
		return nil, err
	}

	snapshots := make([]domain.ProductSnapshot, 0, len(products))
	for i := range products {
		snapshots = append(snapshots, toSnapshot(&products[i], collections[products[i].Id]))
	}
	return snapshots, nil
}

func (c *client) FetchProduct(ctx context.Context, shop string, accessToken string, productID uint64) (*domain.ProductSnapshot, error) {
	cl, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}

	product, err := cl.Product.Get(ctx, productID, nil)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	collections, err := c.collectionMembership(ctx, cl)
	if err != nil {
		return nil, err
	}

	snapshot := toSnapshot(product, collections[product.Id])
	return &snapshot, nil
}

// UpdateProduct pushes the proposed fields as one combined product update.
// Shopify reports validation problems as a 422 with per-field messages; those
// surface as a domain.RemoteUpdateError so the workflow can keep the record in
// its enhanced state.
func (c *client) UpdateProduct(ctx context.Context, shop string, accessToken string, productID uint64, fields domain.ProposedFields) error {
	cl, err := c.createClient(shop, accessToken)
	if err != nil {
		return err
	}

	update := goshopify.Product{
		Id:                             productID,
		Title:                          fields.NewTitle,
		BodyHTML:                       fields.NewDescription,
		Tags:                           strings.Join(fields.NewTags, ", "),
		ProductType:                    fields.NewProductType,
		MetafieldsGlobalTitleTag:       fields.NewSeoTitle,
		MetafieldsGlobalDescriptionTag: fields.NewSeoDescription,
	}

	if _, err := cl.Product.Update(ctx, update); err != nil {
		var respErr goshopify.ResponseError
		if errors.As(err, &respErr) && respErr.Status == 422 {
			fieldErrs := make([]domain.FieldError, 0, len(respErr.Errors))
			for _, msg := range respErr.Errors {
				fieldErrs = append(fieldErrs, domain.FieldError{Message: msg})
			}
			c.logger.Warn().
				Uint64("productId", productID).
				Str("shop", shop).
				Strs("errors", respErr.Errors).
				Msg("Shopify rejected product update")
			return &domain.RemoteUpdateError{Fields: fieldErrs}
		}
		if notFound(err) {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// collectionMembership builds a product id → collection titles map from the
// shop's custom collections. One listing call per collection.
func (c *client) collectionMembership(ctx context.Context, cl *goshopify.Client) (map[uint64][]string, error) {
	collections, err := cl.CustomCollection.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom collections: %w", err)
	}

	membership := make(map[uint64][]string)
	for _, col := range collections {
		products, err := cl.Collection.ListProducts(ctx, col.Id, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list collection products: %w", err)
		}
		for _, p := range products {
			membership[p.Id] = append(membership[p.Id], col.Title)
		}
	}
	return membership, nil
}

// toSnapshot maps a Shopify REST product into the analysis snapshot.
func toSnapshot(p *goshopify.Product, collections []string) domain.ProductSnapshot {
	snapshot := domain.ProductSnapshot{
		ID:              p.Id,
		Handle:          p.Handle,
		Title:           p.Title,
		DescriptionHTML: p.BodyHTML,
		Tags:            splitTags(p.Tags),
		ProductType:     p.ProductType,
		Vendor:          p.Vendor,
		Status:          domain.ProductStatus(strings.ToUpper(string(p.Status))),
		SEO: domain.SEO{
			Title:       p.MetafieldsGlobalTitleTag,
			Description: p.MetafieldsGlobalDescriptionTag,
		},
		Collections: collections,
		PublishedAt: p.PublishedAt,
	}
	if p.CreatedAt != nil {
		snapshot.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		snapshot.UpdatedAt = *p.UpdatedAt
	}

	if p.Image.Src != "" {
		snapshot.FeaturedMedia = &domain.Media{URL: p.Image.Src}
	} else if len(p.Images) > 0 && p.Images[0].Src != "" {
		snapshot.FeaturedMedia = &domain.Media{URL: p.Images[0].Src}
	}

	snapshot.Variants = make([]domain.Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		price := ""
		if v.Price != nil {
			price = v.Price.String()
		}
		snapshot.Variants = append(snapshot.Variants, domain.Variant{
			ID:              v.Id,
			Price:           price,
			Grams:           float64(v.Grams),
			TracksInventory: v.InventoryManagement != "",
		})
	}

	return snapshot
}

func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, t := range parts {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func notFound(err error) bool {
	var respErr goshopify.ResponseError
	return errors.As(err, &respErr) && respErr.Status == 404
}
