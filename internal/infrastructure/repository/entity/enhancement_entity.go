package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-audit-shopify-layer/internal/domain"
)

// EnhancementDoc represents an enhancement record in MongoDB.
type EnhancementDoc struct {
	ID                  primitive.ObjectID     `bson:"_id,omitempty"`
	ProductID           uint64                 `bson:"productId"`
	ShopDomain          string                 `bson:"shopDomain"`
	Status              string                 `bson:"status"`
	AICorrectionPending bool                   `bson:"aiCorrectionPending"`
	FindingCount        int                    `bson:"findingCount"`
	OriginalFields      domain.OriginalFields  `bson:"originalFields"`
	ProposedFields      *domain.ProposedFields `bson:"proposedFields,omitempty"`
	Version             int64                  `bson:"version"`
	CreatedAt           time.Time              `bson:"createdAt"`
	LastCheckedAt       time.Time              `bson:"lastCheckedAt"`
	UpdatedAt           time.Time              `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *EnhancementDoc) ToDomain() *domain.EnhancementRecord {
	return &domain.EnhancementRecord{
		ProductID:           d.ProductID,
		ShopDomain:          d.ShopDomain,
		Status:              domain.EnhancementStatus(d.Status),
		AICorrectionPending: d.AICorrectionPending,
		FindingCount:        d.FindingCount,
		OriginalFields:      d.OriginalFields,
		ProposedFields:      d.ProposedFields,
		Version:             d.Version,
		CreatedAt:           d.CreatedAt,
		LastCheckedAt:       d.LastCheckedAt,
	}
}

// EnhancementDocFromDomain converts a domain entity to a MongoDB document.
func EnhancementDocFromDomain(rec *domain.EnhancementRecord) *EnhancementDoc {
	return &EnhancementDoc{
		ProductID:           rec.ProductID,
		ShopDomain:          rec.ShopDomain,
		Status:              string(rec.Status),
		AICorrectionPending: rec.AICorrectionPending,
		FindingCount:        rec.FindingCount,
		OriginalFields:      rec.OriginalFields,
		ProposedFields:      rec.ProposedFields,
		Version:             rec.Version,
		CreatedAt:           rec.CreatedAt,
		LastCheckedAt:       rec.LastCheckedAt,
	}
}

// HistoryDoc represents an enhancement history snapshot in MongoDB.
type HistoryDoc struct {
	ID             primitive.ObjectID    `bson:"_id,omitempty"`
	ProductID      uint64                `bson:"productId"`
	ShopDomain     string                `bson:"shopDomain"`
	Status         string                `bson:"status"`
	OriginalFields domain.OriginalFields `bson:"originalFields"`
	ProposedFields domain.ProposedFields `bson:"proposedFields"`
	UpdatedBy      string                `bson:"updatedBy"`
	CreatedAt      time.Time             `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *HistoryDoc) ToDomain() *domain.EnhancementHistory {
	return &domain.EnhancementHistory{
		ProductID:      d.ProductID,
		ShopDomain:     d.ShopDomain,
		Status:         domain.EnhancementStatus(d.Status),
		OriginalFields: d.OriginalFields,
		ProposedFields: d.ProposedFields,
		UpdatedBy:      d.UpdatedBy,
		CreatedAt:      d.CreatedAt,
	}
}

// HistoryDocFromDomain converts a domain entity to a MongoDB document.
func HistoryDocFromDomain(h *domain.EnhancementHistory) *HistoryDoc {
	return &HistoryDoc{
		ProductID:      h.ProductID,
		ShopDomain:     h.ShopDomain,
		Status:         string(h.Status),
		OriginalFields: h.OriginalFields,
		ProposedFields: h.ProposedFields,
		UpdatedBy:      h.UpdatedBy,
		CreatedAt:      h.CreatedAt,
	}
}
