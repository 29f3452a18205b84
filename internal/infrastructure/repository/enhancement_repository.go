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

// MongoEnhancementRepository implements EnhancementRepository using MongoDB.
type MongoEnhancementRepository struct {
	records *mongo.Collection
	history *mongo.Collection
}

// NewMongoEnhancementRepository creates a new MongoDB enhancement repository.
func NewMongoEnhancementRepository(db *mongo.Database) ports.EnhancementRepository {
	return &MongoEnhancementRepository{
		records: db.Collection("enhancements"),
		history: db.Collection("enhancement_history"),
	}
}

// Get retrieves a record by product id.
func (r *MongoEnhancementRepository) Get(ctx context.Context, productID uint64) (*domain.EnhancementRecord, error) {
	var doc entity.EnhancementDoc
	filter := bson.M{"productId": productID}

	err := r.records.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enhancement record: %w", err)
	}

	return doc.ToDomain(), nil
}

// Ensure upserts the record: creates it with status new when absent, and
// refreshes the finding count and last-checked time when present. Workflow
// state (status, pending flag, proposal, version) is never touched for an
// existing record.
func (r *MongoEnhancementRepository) Ensure(ctx context.Context, rec *domain.EnhancementRecord) error {
	now := time.Now()
	filter := bson.M{"productId": rec.ProductID}
	update := bson.M{
		"$set": bson.M{
			"shopDomain":     rec.ShopDomain,
			"findingCount":   rec.FindingCount,
			"originalFields": rec.OriginalFields,
			"lastCheckedAt":  now,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{
			"status":              string(domain.EnhancementStatusNew),
			"aiCorrectionPending": false,
			"version":             int64(0),
			"createdAt":           now,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.records.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to ensure enhancement record: %w", err)
	}

	return nil
}

// UpdateWithVersion persists the record gated on its version (compare-and-
// swap). A version mismatch or unknown product id returns domain.ErrNotFound
// without writing anything.
func (r *MongoEnhancementRepository) UpdateWithVersion(ctx context.Context, rec *domain.EnhancementRecord) error {
	filter := bson.M{
		"productId": rec.ProductID,
		"version":   rec.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"status":              string(rec.Status),
			"aiCorrectionPending": rec.AICorrectionPending,
			"proposedFields":      rec.ProposedFields,
			"lastCheckedAt":       rec.LastCheckedAt,
			"updatedAt":           time.Now(),
		},
		"$inc": bson.M{"version": int64(1)},
	}

	result, err := r.records.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update enhancement record: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: product %d at version %d", domain.ErrNotFound, rec.ProductID, rec.Version)
	}

	rec.Version++
	return nil
}

// MarkSelected flags the products for AI correction. The ids are verified
// first and the flag is written with a single UpdateMany, so either every
// record is marked or none is.
func (r *MongoEnhancementRepository) MarkSelected(ctx context.Context, productIDs []uint64) error {
	filter := bson.M{"productId": bson.M{"$in": productIDs}}

	count, err := r.records.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to verify selection: %w", err)
	}
	if count != int64(len(productIDs)) {
		return fmt.Errorf("%w: %d of %d products unknown", domain.ErrNotFound, int64(len(productIDs))-count, len(productIDs))
	}

	update := bson.M{
		"$set": bson.M{
			"aiCorrectionPending": true,
			"updatedAt":           time.Now(),
		},
	}
	if _, err := r.records.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark selection: %w", err)
	}

	return nil
}

// SaveHistory appends a history snapshot.
func (r *MongoEnhancementRepository) SaveHistory(ctx context.Context, h *domain.EnhancementHistory) error {
	doc := entity.HistoryDocFromDomain(h)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if _, err := r.history.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to save enhancement history: %w", err)
	}

	return nil
}

// LatestHistory returns the most recent history snapshot for a product.
func (r *MongoEnhancementRepository) LatestHistory(ctx context.Context, productID uint64) (*domain.EnhancementHistory, error) {
	var doc entity.HistoryDoc
	filter := bson.M{"productId": productID}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.history.FindOne(ctx, filter, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enhancement history: %w", err)
	}

	return doc.ToDomain(), nil
}
