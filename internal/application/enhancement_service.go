package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/infrastructure/metrics"
	"catalog-audit-shopify-layer/internal/ports"
)

// GenerationCost is the flat credit charge per generated proposal.
const GenerationCost int64 = 100

// EnhancementService orchestrates the enhancement lifecycle of a product:
// select → generate → approve or reject. Transitions for the same product id
// are serialized by a keyed lock and gated by compare-and-swap record writes;
// operations on different products proceed independently.
type EnhancementService struct {
	enhancements ports.EnhancementRepository
	shops        ports.ShopRepository
	catalog      ports.CatalogClient
	generator    ports.TextGenerator
	ledger       ports.CreditLedger
	metrics      *metrics.Metrics
	locks        *keyedMutex
	logger       zerolog.Logger
}

// NewEnhancementService creates the enhancement workflow service.
func NewEnhancementService(
	enhancements ports.EnhancementRepository,
	shops ports.ShopRepository,
	catalog ports.CatalogClient,
	generator ports.TextGenerator,
	ledger ports.CreditLedger,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *EnhancementService {
	return &EnhancementService{
		enhancements: enhancements,
		shops:        shops,
		catalog:      catalog,
		generator:    generator,
		ledger:       ledger,
		metrics:      m,
		locks:        newKeyedMutex(),
		logger:       logger,
	}
}

// SelectForEnhancement marks a batch of products for AI correction. The batch
// is all-or-nothing: if the persistence call fails or any id is unknown, no
// record is marked. Repeating the call is safe.
func (s *EnhancementService) SelectForEnhancement(ctx context.Context, productIDs []uint64) error {
	if len(productIDs) == 0 {
		return fmt.Errorf("%w: no product ids", domain.ErrInvalidInput)
	}

	if err := s.enhancements.MarkSelected(ctx, productIDs); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return &domain.PersistenceError{Op: "mark selected", Err: err}
	}

	s.logger.Info().Int("count", len(productIDs)).Msg("Products selected for enhancement")
	return nil
}

// Generate asks the AI provider for improved fields for one product.
//
// Order of effects: credit balance gate → provider call → parse → in-memory
// proposal (returned even when the later steps fail) → record and history
// persistence → credit debit. A persistence or debit failure after a
// successful parse is a local error; the proposal stays valid and only the
// bookkeeping must be retried. Generate is NOT blindly repeatable: a prior
// partial failure may already have debited credit, so callers must re-check
// the balance before re-invoking.
func (s *EnhancementService) Generate(ctx context.Context, productID uint64) (*domain.ProposedFields, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	rec, err := s.enhancements.Get(ctx, productID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load record", Err: err}
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
	}
	if !rec.AICorrectionPending {
		return nil, fmt.Errorf("%w: product %d is not selected for enhancement", domain.ErrInvalidInput, productID)
	}

	// Balance gate before any provider call. The record is left unchanged on
	// refusal; no partial charge happens here.
	balance, err := s.ledger.Balance(ctx, rec.ShopDomain)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read credit balance", Err: err}
	}
	if balance < GenerationCost {
		s.metrics.CreditDenied.Inc()
		return nil, fmt.Errorf("%w: balance %d, need %d", domain.ErrInsufficientCredit, balance, GenerationCost)
	}

	shop, err := s.shops.Get(ctx, rec.ShopDomain)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load shop", Err: err}
	}
	if shop == nil {
		return nil, fmt.Errorf("%w: shop %s", domain.ErrNotFound, rec.ShopDomain)
	}

	ctx = domain.WithShopDomain(ctx, shop.Domain)

	snapshot, err := s.catalog.FetchProduct(ctx, shop.Domain, shop.AccessToken, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}

	start := time.Now()
	raw, err := s.generator.GenerateProductData(ctx, *snapshot)
	s.metrics.GenerateDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error().Err(err).Uint64("productId", productID).Msg("AI generation failed")
		return nil, err
	}

	fields, err := ParseProposedFields(raw)
	if err != nil {
		return nil, err
	}

	// The proposal is valid from here on. Record update, history snapshot and
	// debit are independent external calls whose failure does not invalidate
	// it; they surface as local errors the caller can retry.
	rec.ProposedFields = fields
	rec.LastCheckedAt = time.Now()
	if err := s.enhancements.UpdateWithVersion(ctx, rec); err != nil {
		return fields, &domain.PersistenceError{Op: "store proposal", Err: err}
	}

	history := &domain.EnhancementHistory{
		ProductID:      rec.ProductID,
		ShopDomain:     rec.ShopDomain,
		Status:         rec.Status,
		OriginalFields: rec.OriginalFields,
		ProposedFields: *fields,
		UpdatedBy:      "AI Enhancer",
		CreatedAt:      time.Now(),
	}
	if err := s.enhancements.SaveHistory(ctx, history); err != nil {
		return fields, &domain.PersistenceError{Op: "store history", Err: err}
	}

	// Charge only after a confirmed generation. The ledger call is atomic
	// check-then-debit, so concurrent generates for other products in the
	// same shop cannot double-spend the last credits.
	newBalance, err := s.ledger.DebitIfSufficient(ctx, rec.ShopDomain, GenerationCost)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredit) {
			s.metrics.CreditDenied.Inc()
			return fields, err
		}
		return fields, &domain.PersistenceError{Op: "debit credit", Err: err}
	}

	s.metrics.EnhancementsGenerated.Inc()
	s.logger.Info().
		Uint64("productId", productID).
		Str("shop", rec.ShopDomain).
		Int64("balance", newBalance).
		Msg("Generated enhancement proposal")

	return fields, nil
}

// Approve pushes the proposed fields to the catalog and marks the record
// processed. A rejected push leaves the record in its enhanced state. The push
// is a full overwrite of the touched fields, so repeating Approve after a
// success is a no-op. A failed local status write after a successful push is
// surfaced with the stale-local flag so the caller can reconcile.
func (s *EnhancementService) Approve(ctx context.Context, productID uint64) error {
	unlock := s.locks.Lock(productID)
	defer unlock()

	rec, err := s.enhancements.Get(ctx, productID)
	if err != nil {
		return &domain.PersistenceError{Op: "load record", Err: err}
	}
	if rec == nil {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
	}

	// Already processed: the previous approve completed. Never double-push.
	if rec.Status == domain.EnhancementStatusProcessed && !rec.AICorrectionPending {
		return nil
	}

	// A proposal may only be pushed when this record's generation populated
	// it; a record without one has nothing approvable.
	if rec.ProposedFields == nil {
		return fmt.Errorf("%w: product %d has no generated proposal", domain.ErrInvalidInput, productID)
	}

	shop, err := s.shops.Get(ctx, rec.ShopDomain)
	if err != nil {
		return &domain.PersistenceError{Op: "load shop", Err: err}
	}
	if shop == nil {
		return fmt.Errorf("%w: shop %s", domain.ErrNotFound, rec.ShopDomain)
	}

	if err := s.catalog.UpdateProduct(ctx, shop.Domain, shop.AccessToken, productID, *rec.ProposedFields); err != nil {
		var remoteErr *domain.RemoteUpdateError
		if errors.As(err, &remoteErr) {
			s.logger.Warn().
				Uint64("productId", productID).
				Int("fieldErrors", len(remoteErr.Fields)).
				Msg("Catalog rejected product update")
			return err
		}
		return fmt.Errorf("failed to push product %d: %w", productID, err)
	}

	rec.Status = domain.EnhancementStatusProcessed
	rec.AICorrectionPending = false
	rec.LastCheckedAt = time.Now()
	if err := s.enhancements.UpdateWithVersion(ctx, rec); err != nil {
		// The catalog-side change is live; only the local status is behind.
		return &domain.PersistenceError{Op: "mark processed", StaleLocal: true, Err: err}
	}

	s.metrics.EnhancementsApproved.Inc()
	s.logger.Info().Uint64("productId", productID).Str("shop", rec.ShopDomain).Msg("Enhancement approved and pushed")
	return nil
}

// Reject archives the record without touching the catalog. The product can be
// re-selected in a later cycle. Repeating Reject is safe.
func (s *EnhancementService) Reject(ctx context.Context, productID uint64) error {
	unlock := s.locks.Lock(productID)
	defer unlock()

	rec, err := s.enhancements.Get(ctx, productID)
	if err != nil {
		return &domain.PersistenceError{Op: "load record", Err: err}
	}
	if rec == nil {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
	}

	rec.Status = domain.EnhancementStatusArchived
	rec.AICorrectionPending = false
	rec.LastCheckedAt = time.Now()
	if err := s.enhancements.UpdateWithVersion(ctx, rec); err != nil {
		return &domain.PersistenceError{Op: "mark archived", Err: err}
	}

	s.metrics.EnhancementsRejected.Inc()
	s.logger.Info().Uint64("productId", productID).Str("shop", rec.ShopDomain).Msg("Enhancement rejected")
	return nil
}

// Proposal returns the latest generated proposal for a product, preferring
// the live record and falling back to history.
func (s *EnhancementService) Proposal(ctx context.Context, productID uint64) (*domain.ProposedFields, error) {
	rec, err := s.enhancements.Get(ctx, productID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load record", Err: err}
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
	}
	if rec.ProposedFields != nil {
		return rec.ProposedFields, nil
	}

	h, err := s.enhancements.LatestHistory(ctx, productID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load history", Err: err}
	}
	if h == nil {
		return nil, fmt.Errorf("%w: product %d has no proposal", domain.ErrNotFound, productID)
	}
	return &h.ProposedFields, nil
}
