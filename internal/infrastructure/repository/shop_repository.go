package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/infrastructure/repository/entity"
	"catalog-audit-shopify-layer/internal/ports"
)

// MongoShopRepository implements ShopRepository using MongoDB.
type MongoShopRepository struct {
	collection *mongo.Collection
}

// NewMongoShopRepository creates a new MongoDB shop repository.
func NewMongoShopRepository(db *mongo.Database) ports.ShopRepository {
	return &MongoShopRepository{
		collection: db.Collection("shops"),
	}
}

// Save saves or updates a shop.
func (r *MongoShopRepository) Save(ctx context.Context, shop *domain.Shop) error {
	doc := entity.ShopDocFromDomain(shop)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{"$set": doc}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}

	return nil
}

// Get retrieves a shop by domain.
func (r *MongoShopRepository) Get(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var doc entity.ShopDoc
	filter := bson.M{"domain": shopDomain}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return doc.ToDomain(), nil
}

// TouchLastSync stamps the shop's last scan time and product count.
func (r *MongoShopRepository) TouchLastSync(ctx context.Context, shopDomain string, at time.Time, totalProducts int) error {
	filter := bson.M{"domain": shopDomain}
	update := bson.M{
		"$set": bson.M{
			"lastSyncAt":    at,
			"totalProducts": totalProducts,
			"updatedAt":     time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update last sync: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: shop %s", domain.ErrNotFound, shopDomain)
	}

	return nil
}
