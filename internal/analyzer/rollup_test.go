package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-audit-shopify-layer/internal/domain"
)

func TestClassifySeverityBoundaries(t *testing.T) {
	tests := []struct {
		count  int
		tier   Tier
		weight float64
	}{
		{0, TierSuccess, 0},
		{1, TierGraded, 0.2},
		{3, TierGraded, 0.6},
		{5, TierGraded, 1.0},
		{6, TierWarning, 1},
		{10, TierWarning, 1},
		{11, TierCritical, 1},
		{100, TierCritical, 1},
	}

	for _, tt := range tests {
		band := ClassifySeverity(tt.count)
		assert.Equal(t, tt.tier, band.Tier, "count %d", tt.count)
		assert.InDelta(t, tt.weight, band.DisplayWeight, 0.0001, "count %d", tt.count)
	}
}

func TestRollupSumsPerKey(t *testing.T) {
	total := Rollup([]domain.IssueCounts{
		{SeoTitle: 1, Tags: 1, Weight: 1},
		{SeoTitle: 1, Vendor: 1},
		{},
		{Collections: 1, Tags: 1},
	})

	assert.Equal(t, domain.IssueCounts{
		SeoTitle:    2,
		Tags:        2,
		Weight:      1,
		Vendor:      1,
		Collections: 1,
	}, total)
}

func TestRollupEmpty(t *testing.T) {
	assert.Equal(t, domain.IssueCounts{}, Rollup(nil))
}

func TestRollupRowsLabels(t *testing.T) {
	rows := RollupRows(domain.IssueCounts{Tags: 3, SeoTitle: 7})

	assert.Len(t, rows, 10)
	assert.Equal(t, RollupRow{Title: "Missing tags", Value: 3}, rows[0])
	assert.Equal(t, RollupRow{Title: "Missing SEO title", Value: 7}, rows[3])
}
