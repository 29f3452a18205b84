// Package analyzer evaluates product snapshots against the fixed set of
// data-completeness rules and folds per-product results into shop-level
// rollups. Everything in this package is pure and side-effect free.
package analyzer

import (
	"strings"

	"github.com/shopspring/decimal"

	"catalog-audit-shopify-layer/internal/domain"
)

// blank reports whether a string is absent or blank after trimming. Both
// cases fail their rule.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Analyze evaluates every rule against the snapshot and returns the ordered
// findings plus the per-category counters. Rules are evaluated
// unconditionally in a fixed order so messages are deterministic; each rule
// fires at most once. Analyze never fails on well-typed input: absent optional
// fields simply fail their rule.
func Analyze(p domain.ProductSnapshot) domain.Analysis {
	var findings []domain.Finding
	var counts domain.IssueCounts

	if blank(p.SEO.Title) {
		counts.SeoTitle++
		findings = append(findings, domain.Finding{
			Issue:    "SEO Title",
			Severity: domain.SeverityHigh,
			Message:  "SEO title is missing.",
		})
	}

	if blank(p.SEO.Description) {
		counts.SeoDescription++
		findings = append(findings, domain.Finding{
			Issue:    "SEO Description",
			Severity: domain.SeverityMedium,
			Message:  "SEO description is missing.",
		})
	}

	if p.FeaturedMedia == nil || blank(p.FeaturedMedia.URL) {
		counts.FeaturedMedia++
		findings = append(findings, domain.Finding{
			Issue:    "Media",
			Severity: domain.SeverityHigh,
			Message:  "Product has no featured media.",
		})
	}

	if blank(p.Title) {
		counts.Title++
		findings = append(findings, domain.Finding{
			Issue:    "Title",
			Severity: domain.SeverityHigh,
			Message:  "Product title is missing.",
		})
	}

	// Message-only rule: too-short descriptions are reported but not counted.
	if len(strings.TrimSpace(p.DescriptionHTML)) < 50 {
		findings = append(findings, domain.Finding{
			Issue:    "Description",
			Severity: domain.SeverityMedium,
			Message:  "Product description is missing or too short.",
		})
	}

	if len(p.Variants) == 0 {
		counts.Variants++
		findings = append(findings, domain.Finding{
			Issue:    "Variants",
			Severity: domain.SeverityHigh,
			Message:  "Product has no variants.",
		})
	}

	if p.PublishedAt == nil {
		counts.PublishedAt++
		findings = append(findings, domain.Finding{
			Issue:    "Publication",
			Severity: domain.SeverityMedium,
			Message:  "Product is not published on any sales channels.",
		})
	}

	// Message-only rule: a missing or zero price on any variant.
	if priceMissing(p.Variants) {
		findings = append(findings, domain.Finding{
			Issue:    "Price",
			Severity: domain.SeverityHigh,
			Message:  "Product price is missing or set to zero.",
		})
	}

	if len(p.Tags) == 0 {
		counts.Tags++
		findings = append(findings, domain.Finding{
			Issue:    "Tags",
			Severity: domain.SeverityLow,
			Message:  "Product has no tags.",
		})
	}

	if len(p.Collections) == 0 {
		counts.Collections++
		findings = append(findings, domain.Finding{
			Issue:    "Collections",
			Severity: domain.SeverityLow,
			Message:  "Product is not part of any collection.",
		})
	}

	if blank(p.ProductType) {
		counts.ProductType++
		findings = append(findings, domain.Finding{
			Issue:    "Product Type",
			Severity: domain.SeverityMedium,
			Message:  "Product type is missing.",
		})
	}

	if blank(p.Vendor) {
		counts.Vendor++
		findings = append(findings, domain.Finding{
			Issue:    "Vendor",
			Severity: domain.SeverityMedium,
			Message:  "Product vendor is missing.",
		})
	}

	if weightMissing(p.Variants) {
		counts.Weight++
		findings = append(findings, domain.Finding{
			Issue:    "Weight",
			Severity: domain.SeverityLow,
			Message:  "Product weight is missing.",
		})
	}

	if !tracksInventory(p.Variants) {
		counts.TracksInventory++
		findings = append(findings, domain.Finding{
			Issue:    "Inventory Tracking",
			Severity: domain.SeverityMedium,
			Message:  "Product inventory is not being tracked.",
		})
	}

	// Message-only rule: unknown status values.
	if !p.Status.Valid() {
		findings = append(findings, domain.Finding{
			Issue:    "Status",
			Severity: domain.SeverityHigh,
			Message:  "Product status is invalid.",
		})
	}

	// The success case is a single synthetic finding, never an empty list.
	if len(findings) == 0 {
		findings = append(findings, domain.Finding{Message: domain.FullyOptimizedMessage})
	}

	return domain.Analysis{Findings: findings, IssueCounts: counts}
}

// priceMissing reports whether any variant has a missing, unparsable or zero
// price. An empty variant list is covered by the variants rule instead.
func priceMissing(variants []domain.Variant) bool {
	for _, v := range variants {
		if blank(v.Price) {
			return true
		}
		price, err := decimal.NewFromString(strings.TrimSpace(v.Price))
		if err != nil || price.IsZero() {
			return true
		}
	}
	return false
}

// weightMissing reports whether every variant reports a zero or absent weight.
func weightMissing(variants []domain.Variant) bool {
	for _, v := range variants {
		if v.Grams > 0 {
			return false
		}
	}
	return true
}

// tracksInventory reports whether at least one variant tracks inventory.
func tracksInventory(variants []domain.Variant) bool {
	for _, v := range variants {
		if v.TracksInventory {
			return true
		}
	}
	return false
}
