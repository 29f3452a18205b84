package ports

import (
	"context"
	"time"

	"catalog-audit-shopify-layer/internal/domain"
)

// EnhancementRepository persists enhancement records and their history.
type EnhancementRepository interface {
	// Get retrieves the record for a product, or nil when none exists.
	Get(ctx context.Context, productID uint64) (*domain.EnhancementRecord, error)

	// Ensure creates the record if it does not exist yet (status new) and
	// refreshes the finding count and last-checked time either way.
	Ensure(ctx context.Context, rec *domain.EnhancementRecord) error

	// UpdateWithVersion persists the record gated on its version field
	// (compare-and-swap). It returns domain.ErrNotFound when no record with
	// the given product id and version exists, so a concurrent transition is
	// never silently overwritten.
	UpdateWithVersion(ctx context.Context, rec *domain.EnhancementRecord) error

	// MarkSelected flags the given products for AI correction in one
	// all-or-nothing call: if any id is unknown, no record is marked.
	MarkSelected(ctx context.Context, productIDs []uint64) error

	// SaveHistory appends an enhancement history snapshot.
	SaveHistory(ctx context.Context, h *domain.EnhancementHistory) error

	// LatestHistory returns the most recent history snapshot for a product,
	// or nil when none exists.
	LatestHistory(ctx context.Context, productID uint64) (*domain.EnhancementHistory, error)
}

// IssueRepository persists per-product issue counters and aggregates them.
type IssueRepository interface {
	// SaveCounts upserts the counters of one product analysis.
	SaveCounts(ctx context.Context, shop string, productID uint64, counts domain.IssueCounts) error

	// SumCounts returns the shop-level per-key totals.
	SumCounts(ctx context.Context, shop string) (domain.IssueCounts, error)
}

// FindingBucket is the number of products sharing a finding count.
type FindingBucket struct {
	FindingCount int `json:"findingCount" bson:"_id"`
	Products     int `json:"products" bson:"products"`
}

// ProductAuditRepository persists analysis results per product.
type ProductAuditRepository interface {
	// SaveAudit upserts the analyzed snapshot and its findings.
	SaveAudit(ctx context.Context, shop string, p domain.ProductSnapshot, a domain.Analysis) error

	// CountByFindings groups the shop's products by finding count.
	CountByFindings(ctx context.Context, shop string) ([]FindingBucket, error)
}

// ShopRepository persists connected shops.
type ShopRepository interface {
	Save(ctx context.Context, shop *domain.Shop) error
	Get(ctx context.Context, shopDomain string) (*domain.Shop, error)
	TouchLastSync(ctx context.Context, shopDomain string, at time.Time, totalProducts int) error
}
