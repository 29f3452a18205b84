package domain

import "time"

// ProductStatus is the catalog lifecycle status reported by Shopify.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
	ProductStatusDraft    ProductStatus = "DRAFT"
)

// Valid reports whether the status is one of the three Shopify statuses.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusArchived, ProductStatusDraft:
		return true
	}
	return false
}

// SEO holds the search-engine fields of a product.
type SEO struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
}

// Media is an image reference attached to a product.
type Media struct {
	URL string `json:"url" bson:"url"`
}

// Category is an optional taxonomy reference.
type Category struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Variant is a purchasable variation of a product.
type Variant struct {
	ID              uint64  `json:"id" bson:"id"`
	Price           string  `json:"price" bson:"price"`
	Grams           float64 `json:"grams" bson:"grams"`
	TracksInventory bool    `json:"tracksInventory" bson:"tracksInventory"`
}

// ProductSnapshot is an immutable view of a product's catalog fields at
// analysis time. It is produced by the catalog adapter and read-only to the
// analyzer and the enhancement workflow.
type ProductSnapshot struct {
	ID              uint64        `json:"id" bson:"id"`
	Handle          string        `json:"handle" bson:"handle"`
	Title           string        `json:"title" bson:"title"`
	DescriptionHTML string        `json:"descriptionHtml" bson:"descriptionHtml"`
	Tags            []string      `json:"tags" bson:"tags"`
	ProductType     string        `json:"productType" bson:"productType"`
	Vendor          string        `json:"vendor" bson:"vendor"`
	Status          ProductStatus `json:"status" bson:"status"`
	SEO             SEO           `json:"seo" bson:"seo"`
	FeaturedMedia   *Media        `json:"featuredMedia,omitempty" bson:"featuredMedia,omitempty"`
	Variants        []Variant     `json:"variants" bson:"variants"`
	Collections     []string      `json:"collections" bson:"collections"`
	PublishedAt     *time.Time    `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	Category        *Category     `json:"category,omitempty" bson:"category,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updatedAt"`
}
