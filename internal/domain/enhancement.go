package domain

import "time"

// EnhancementStatus is the persisted lifecycle status of an enhancement record.
type EnhancementStatus string

const (
	EnhancementStatusNew       EnhancementStatus = "new"
	EnhancementStatusProcessed EnhancementStatus = "processed"
	EnhancementStatusArchived  EnhancementStatus = "archived"
)

// ProposedFields is the fixed seven-key schema the generative provider must
// return. Every key is always present; empty string or empty slice means the
// provider had nothing to suggest for that field.
type ProposedFields struct {
	NewTitle          string   `json:"newTitle" bson:"newTitle"`
	NewDescription    string   `json:"newDescription" bson:"newDescription"`
	NewTags           []string `json:"newTags" bson:"newTags"`
	NewSeoTitle       string   `json:"newSeoTitle" bson:"newSeoTitle"`
	NewSeoDescription string   `json:"newSeoDescription" bson:"newSeoDescription"`
	NewCategoryName   string   `json:"newCategoryName" bson:"newCategoryName"`
	NewProductType    string   `json:"newProductType" bson:"newProductType"`
}

// OriginalFields is the field snapshot captured when a record is created,
// kept so history entries can show what a proposal replaced.
type OriginalFields struct {
	Title          string   `json:"title" bson:"title"`
	Description    string   `json:"description" bson:"description"`
	Tags           []string `json:"tags" bson:"tags"`
	SeoTitle       string   `json:"seoTitle" bson:"seoTitle"`
	SeoDescription string   `json:"seoDescription" bson:"seoDescription"`
	CategoryName   string   `json:"categoryName" bson:"categoryName"`
	ProductType    string   `json:"productType" bson:"productType"`
}

// EnhancementRecord tracks one product's journey through the enhancement
// workflow. Version supports the compare-and-swap updates that serialize
// transitions per product.
type EnhancementRecord struct {
	ProductID            uint64            `json:"productId" bson:"productId"`
	ShopDomain           string            `json:"shopDomain" bson:"shopDomain"`
	Status               EnhancementStatus `json:"status" bson:"status"`
	AICorrectionPending  bool              `json:"aiCorrectionPending" bson:"aiCorrectionPending"`
	FindingCount         int               `json:"findingCount" bson:"findingCount"`
	OriginalFields       OriginalFields    `json:"originalFields" bson:"originalFields"`
	ProposedFields       *ProposedFields   `json:"proposedFields,omitempty" bson:"proposedFields,omitempty"`
	Version              int64             `json:"version" bson:"version"`
	CreatedAt            time.Time         `json:"createdAt" bson:"createdAt"`
	LastCheckedAt        time.Time         `json:"lastCheckedAt" bson:"lastCheckedAt"`
}

// EnhancementHistory is an append-only snapshot written when a proposal is
// generated, so a rejected or superseded proposal can still be inspected.
type EnhancementHistory struct {
	ProductID      uint64          `json:"productId" bson:"productId"`
	ShopDomain     string          `json:"shopDomain" bson:"shopDomain"`
	Status         EnhancementStatus `json:"status" bson:"status"`
	OriginalFields OriginalFields  `json:"originalFields" bson:"originalFields"`
	ProposedFields ProposedFields  `json:"proposedFields" bson:"proposedFields"`
	UpdatedBy      string          `json:"updatedBy" bson:"updatedBy"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
}

// Shop is a connected storefront.
type Shop struct {
	Domain        string    `json:"domain" bson:"domain"`
	Name          string    `json:"name" bson:"name"`
	Currency      string    `json:"currency" bson:"currency"`
	AccessToken   string    `json:"-" bson:"accessToken"`
	TotalProducts int       `json:"totalProducts" bson:"totalProducts"`
	LastSyncAt    time.Time `json:"lastSyncAt" bson:"lastSyncAt"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}
