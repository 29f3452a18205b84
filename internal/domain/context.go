package domain

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const shopDomainKey contextKey = "shop_domain"

// WithShopDomain returns a context carrying the shop domain of the request.
// Shop identity is always request-scoped and passed by parameter; no
// process-wide shop state exists.
func WithShopDomain(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopDomainKey, shop)
}

// ShopDomainFromContext returns the shop domain set by WithShopDomain, or "".
func ShopDomainFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(shopDomainKey).(string); ok {
		return v
	}
	return ""
}
