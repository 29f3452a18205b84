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

// MongoProductAuditRepository implements ProductAuditRepository using MongoDB.
type MongoProductAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoProductAuditRepository creates a new MongoDB product audit repository.
func NewMongoProductAuditRepository(db *mongo.Database) ports.ProductAuditRepository {
	return &MongoProductAuditRepository{
		collection: db.Collection("product_audits"),
	}
}

// SaveAudit upserts the analyzed snapshot and its findings.
func (r *MongoProductAuditRepository) SaveAudit(ctx context.Context, shop string, p domain.ProductSnapshot, a domain.Analysis) error {
	filter := bson.M{"productId": p.ID}
	update := bson.M{
		"$set": bson.M{
			"shopDomain":    shop,
			"snapshot":      p,
			"findings":      a.Findings,
			"findingCount":  a.FindingCount(),
			"lastCheckedAt": time.Now(),
		},
		"$setOnInsert": bson.M{
			"createdAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save product audit: %w", err)
	}

	return nil
}

// CountByFindings groups the shop's products by finding count.
func (r *MongoProductAuditRepository) CountByFindings(ctx context.Context, shop string) ([]ports.FindingBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"shopDomain": shop}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$findingCount",
			"products": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate finding buckets: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []ports.FindingBucket
	for cursor.Next(ctx) {
		var b ports.FindingBucket
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode finding bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return buckets, nil
}
