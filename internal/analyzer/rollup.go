package analyzer

import "catalog-audit-shopify-layer/internal/domain"

// Tier buckets a product's finding count for display.
type Tier string

const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierGraded   Tier = "graded"
	TierSuccess  Tier = "success"
)

// SeverityBand is the display classification of a finding count.
type SeverityBand struct {
	Tier Tier `json:"tier"`
	// DisplayWeight is 1 for critical and warning, findingCount/5 for the
	// graded tier, and 0 for success.
	DisplayWeight float64 `json:"displayWeight"`
}

// ClassifySeverity buckets a non-negative finding count: more than 10 is
// critical, 6 to 10 is warning, 1 to 5 is graded with linear weight n/5,
// 0 is success.
func ClassifySeverity(findingCount int) SeverityBand {
	switch {
	case findingCount > 10:
		return SeverityBand{Tier: TierCritical, DisplayWeight: 1}
	case findingCount >= 6:
		return SeverityBand{Tier: TierWarning, DisplayWeight: 1}
	case findingCount >= 1:
		return SeverityBand{Tier: TierGraded, DisplayWeight: float64(findingCount) / 5}
	default:
		return SeverityBand{Tier: TierSuccess}
	}
}

// Rollup folds per-product issue counters into shop-level totals.
func Rollup(counts []domain.IssueCounts) domain.IssueCounts {
	var total domain.IssueCounts
	for _, c := range counts {
		total.Add(c)
	}
	return total
}

// RollupRow is one labelled shop-level total for reporting.
type RollupRow struct {
	Title string `json:"dataTitle"`
	Value int    `json:"dataValue"`
}

// RollupRows renders shop totals as the labelled rows reporting consumes.
func RollupRows(total domain.IssueCounts) []RollupRow {
	return []RollupRow{
		{Title: "Missing tags", Value: total.Tags},
		{Title: "Missing vendor", Value: total.Vendor},
		{Title: "Missing weight", Value: total.Weight},
		{Title: "Missing SEO title", Value: total.SeoTitle},
		{Title: "Missing SEO description", Value: total.SeoDescription},
		{Title: "Without collection", Value: total.Collections},
		{Title: "Without Product type", Value: total.ProductType},
		{Title: "Sales channel missing", Value: total.PublishedAt},
		{Title: "Without image", Value: total.FeaturedMedia},
		{Title: "Missing Inventory", Value: total.TracksInventory},
	}
}
