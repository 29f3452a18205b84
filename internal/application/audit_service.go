package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"catalog-audit-shopify-layer/internal/analyzer"
	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/infrastructure/metrics"
	"catalog-audit-shopify-layer/internal/ports"
)

// AuditService runs catalog scans and answers per-shop rollup queries.
type AuditService struct {
	catalog      ports.CatalogClient
	shops        ports.ShopRepository
	audits       ports.ProductAuditRepository
	issues       ports.IssueRepository
	enhancements ports.EnhancementRepository
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewAuditService creates the audit service.
func NewAuditService(
	catalog ports.CatalogClient,
	shops ports.ShopRepository,
	audits ports.ProductAuditRepository,
	issues ports.IssueRepository,
	enhancements ports.EnhancementRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AuditService {
	return &AuditService{
		catalog:      catalog,
		shops:        shops,
		audits:       audits,
		issues:       issues,
		enhancements: enhancements,
		metrics:      m,
		logger:       logger,
	}
}

// ScanResult summarizes one catalog scan.
type ScanResult struct {
	ProductsScanned int `json:"productsScanned"`
	ProductsFlagged int `json:"productsFlagged"`
}

// Scan fetches every product of the shop, analyzes it, persists the audit and
// issue counters, and makes sure an enhancement record exists per product.
// Products are independent: a persistence failure on one aborts the scan with
// a PersistenceError, but analysis itself never fails.
func (s *AuditService) Scan(ctx context.Context, shopDomain string) (*ScanResult, error) {
	shop, err := s.shops.Get(ctx, shopDomain)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load shop", Err: err}
	}
	if shop == nil {
		return nil, fmt.Errorf("%w: shop %s", domain.ErrNotFound, shopDomain)
	}

	start := time.Now()
	products, err := s.catalog.ListProducts(ctx, shop.Domain, shop.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for %s: %w", shopDomain, err)
	}

	result := &ScanResult{}
	for _, p := range products {
		a := analyzer.Analyze(p)

		s.metrics.ProductsScanned.Inc()
		for _, f := range a.Findings {
			if !f.Synthetic() {
				s.metrics.FindingsTotal.WithLabelValues(f.Issue).Inc()
			}
		}

		if err := s.audits.SaveAudit(ctx, shopDomain, p, a); err != nil {
			return nil, &domain.PersistenceError{Op: "store audit", Err: err}
		}
		if err := s.issues.SaveCounts(ctx, shopDomain, p.ID, a.IssueCounts); err != nil {
			return nil, &domain.PersistenceError{Op: "store issue counts", Err: err}
		}

		rec := &domain.EnhancementRecord{
			ProductID:    p.ID,
			ShopDomain:   shopDomain,
			Status:       domain.EnhancementStatusNew,
			FindingCount: a.FindingCount(),
			OriginalFields: domain.OriginalFields{
				Title:          p.Title,
				Description:    p.DescriptionHTML,
				Tags:           p.Tags,
				SeoTitle:       p.SEO.Title,
				SeoDescription: p.SEO.Description,
				CategoryName:   categoryName(p.Category),
				ProductType:    p.ProductType,
			},
			CreatedAt:     time.Now(),
			LastCheckedAt: time.Now(),
		}
		if err := s.enhancements.Ensure(ctx, rec); err != nil {
			return nil, &domain.PersistenceError{Op: "ensure enhancement record", Err: err}
		}

		result.ProductsScanned++
		if a.FindingCount() > 0 {
			result.ProductsFlagged++
		}
	}

	if err := s.shops.TouchLastSync(ctx, shopDomain, time.Now(), result.ProductsScanned); err != nil {
		return nil, &domain.PersistenceError{Op: "update last sync", Err: err}
	}

	s.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	s.logger.Info().
		Str("shop", shopDomain).
		Int("scanned", result.ProductsScanned).
		Int("flagged", result.ProductsFlagged).
		Msg("Catalog scan completed")

	return result, nil
}

// RollupReport is the shop-level issue summary.
type RollupReport struct {
	Totals domain.IssueCounts   `json:"totals"`
	Rows   []analyzer.RollupRow `json:"rows"`
}

// Rollup sums the shop's per-product issue counters.
func (s *AuditService) Rollup(ctx context.Context, shopDomain string) (*RollupReport, error) {
	totals, err := s.issues.SumCounts(ctx, shopDomain)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "sum issue counts", Err: err}
	}
	return &RollupReport{Totals: totals, Rows: analyzer.RollupRows(totals)}, nil
}

// IssueBand is one histogram bucket of the per-shop finding distribution,
// with its display classification attached.
type IssueBand struct {
	FindingCount int                   `json:"findingCount"`
	Products     int                   `json:"products"`
	Band         analyzer.SeverityBand `json:"band"`
}

// IssueBreakdown groups the shop's products by finding count and classifies
// each bucket for display.
func (s *AuditService) IssueBreakdown(ctx context.Context, shopDomain string) ([]IssueBand, error) {
	buckets, err := s.audits.CountByFindings(ctx, shopDomain)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "count findings", Err: err}
	}

	bands := make([]IssueBand, 0, len(buckets))
	for _, b := range buckets {
		bands = append(bands, IssueBand{
			FindingCount: b.FindingCount,
			Products:     b.Products,
			Band:         analyzer.ClassifySeverity(b.FindingCount),
		})
	}
	return bands, nil
}

func categoryName(c *domain.Category) string {
	if c == nil {
		return ""
	}
	return c.Name
}
