package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-audit-shopify-layer/internal/domain"
)

// ShopDoc represents a connected shop in MongoDB.
type ShopDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Domain        string             `bson:"domain"`
	Name          string             `bson:"name"`
	Currency      string             `bson:"currency"`
	AccessToken   string             `bson:"accessToken"`
	TotalProducts int                `bson:"totalProducts"`
	LastSyncAt    time.Time          `bson:"lastSyncAt"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *ShopDoc) ToDomain() *domain.Shop {
	return &domain.Shop{
		Domain:        d.Domain,
		Name:          d.Name,
		Currency:      d.Currency,
		AccessToken:   d.AccessToken,
		TotalProducts: d.TotalProducts,
		LastSyncAt:    d.LastSyncAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// ShopDocFromDomain converts a domain entity to a MongoDB document.
func ShopDocFromDomain(shop *domain.Shop) *ShopDoc {
	return &ShopDoc{
		Domain:        shop.Domain,
		Name:          shop.Name,
		Currency:      shop.Currency,
		AccessToken:   shop.AccessToken,
		TotalProducts: shop.TotalProducts,
		LastSyncAt:    shop.LastSyncAt,
		CreatedAt:     shop.CreatedAt,
		UpdatedAt:     shop.UpdatedAt,
	}
}
