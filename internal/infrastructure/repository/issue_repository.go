package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/ports"
)

// MongoIssueRepository implements IssueRepository using MongoDB. Counter keys
// are stored in the same camelCase casing the analyzer emits, so the
// aggregation below reads exactly the keys that were written.
type MongoIssueRepository struct {
	collection *mongo.Collection
}

// NewMongoIssueRepository creates a new MongoDB issue repository.
func NewMongoIssueRepository(db *mongo.Database) ports.IssueRepository {
	return &MongoIssueRepository{
		collection: db.Collection("issues"),
	}
}

// SaveCounts upserts the counters of one product analysis.
func (r *MongoIssueRepository) SaveCounts(ctx context.Context, shop string, productID uint64, counts domain.IssueCounts) error {
	filter := bson.M{"productId": productID}
	update := bson.M{
		"$set": bson.M{
			"shopDomain": shop,
			"counts":     counts,
			"updatedAt":  time.Now(),
		},
		"$setOnInsert": bson.M{
			"createdAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save issue counts: %w", err)
	}

	return nil
}

// SumCounts aggregates the shop's per-product counters into totals.
func (r *MongoIssueRepository) SumCounts(ctx context.Context, shop string) (domain.IssueCounts, error) {
	keys := []string{
		"seoTitle", "seoDescription", "featuredMedia", "title",
		"variants", "publishedAt", "tags", "collections",
		"productType", "vendor", "weight", "tracksInventory",
	}

	group := bson.D{{Key: "_id", Value: nil}}
	for _, key := range keys {
		group = append(group, bson.E{Key: key, Value: bson.M{"$sum": "$counts." + key}})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"shopDomain": shop}}},
		{{Key: "$group", Value: group}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.IssueCounts{}, fmt.Errorf("failed to aggregate issue counts: %w", err)
	}
	defer cursor.Close(ctx)

	var totals domain.IssueCounts
	if cursor.Next(ctx) {
		if err := cursor.Decode(&totals); err != nil {
			return domain.IssueCounts{}, fmt.Errorf("failed to decode issue totals: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return domain.IssueCounts{}, fmt.Errorf("cursor error: %w", err)
	}

	return totals, nil
}
