package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/ports"
)

// memEnhancementRepo is an in-memory EnhancementRepository with the same
// compare-and-swap contract as the mongo implementation.
type memEnhancementRepo struct {
	mu       sync.Mutex
	records  map[uint64]*domain.EnhancementRecord
	history  []*domain.EnhancementHistory
	failNext error
}

func newMemEnhancementRepo() *memEnhancementRepo {
	return &memEnhancementRepo{records: make(map[uint64]*domain.EnhancementRecord)}
}

func (r *memEnhancementRepo) put(rec domain.EnhancementRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := rec
	r.records[rec.ProductID] = &cp
}

func (r *memEnhancementRepo) snapshot(productID uint64) *domain.EnhancementRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[productID]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

func (r *memEnhancementRepo) Get(ctx context.Context, productID uint64) (*domain.EnhancementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[productID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memEnhancementRepo) Ensure(ctx context.Context, rec *domain.EnhancementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[rec.ProductID]
	if !ok {
		cp := *rec
		r.records[rec.ProductID] = &cp
		return nil
	}
	existing.FindingCount = rec.FindingCount
	existing.OriginalFields = rec.OriginalFields
	existing.LastCheckedAt = rec.LastCheckedAt
	return nil
}

func (r *memEnhancementRepo) UpdateWithVersion(ctx context.Context, rec *domain.EnhancementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	existing, ok := r.records[rec.ProductID]
	if !ok || existing.Version != rec.Version {
		return domain.ErrNotFound
	}
	cp := *rec
	cp.Version++
	r.records[rec.ProductID] = &cp
	rec.Version++
	return nil
}

func (r *memEnhancementRepo) MarkSelected(ctx context.Context, productIDs []uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range productIDs {
		if _, ok := r.records[id]; !ok {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
	}
	for _, id := range productIDs {
		r.records[id].AICorrectionPending = true
	}
	return nil
}

func (r *memEnhancementRepo) SaveHistory(ctx context.Context, h *domain.EnhancementHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *h
	r.history = append(r.history, &cp)
	return nil
}

func (r *memEnhancementRepo) LatestHistory(ctx context.Context, productID uint64) (*domain.EnhancementHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].ProductID == productID {
			cp := *r.history[i]
			return &cp, nil
		}
	}
	return nil, nil
}

type memShopRepo struct {
	mu    sync.Mutex
	shops map[string]*domain.Shop
}

func newMemShopRepo(shops ...*domain.Shop) *memShopRepo {
	r := &memShopRepo{shops: make(map[string]*domain.Shop)}
	for _, s := range shops {
		r.shops[s.Domain] = s
	}
	return r
}

func (r *memShopRepo) Save(ctx context.Context, shop *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shops[shop.Domain] = shop
	return nil
}

func (r *memShopRepo) Get(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shops[shopDomain]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memShopRepo) TouchLastSync(ctx context.Context, shopDomain string, at time.Time, totalProducts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shops[shopDomain]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastSyncAt = at
	s.TotalProducts = totalProducts
	return nil
}

// memLedger implements CreditLedger with the same atomic check-then-debit
// behavior as the redis adapter.
type memLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[string]int64)}
}

func (l *memLedger) Balance(ctx context.Context, shop string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[shop], nil
}

func (l *memLedger) DebitIfSufficient(ctx context.Context, shop string, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[shop] < amount {
		return l.balances[shop], domain.ErrInsufficientCredit
	}
	l.balances[shop] -= amount
	return l.balances[shop], nil
}

func (l *memLedger) Credit(ctx context.Context, shop string, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[shop] += amount
	return l.balances[shop], nil
}

// stubCatalog returns canned snapshots and records pushed updates.
type stubCatalog struct {
	mu        sync.Mutex
	products  []domain.ProductSnapshot
	updateErr error
	updates   []domain.ProposedFields
}

func (c *stubCatalog) ListProducts(ctx context.Context, shop, accessToken string) ([]domain.ProductSnapshot, error) {
	return c.products, nil
}

func (c *stubCatalog) FetchProduct(ctx context.Context, shop, accessToken string, productID uint64) (*domain.ProductSnapshot, error) {
	for _, p := range c.products {
		if p.ID == productID {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
}

func (c *stubCatalog) UpdateProduct(ctx context.Context, shop, accessToken string, productID uint64, fields domain.ProposedFields) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updateErr != nil {
		return c.updateErr
	}
	c.updates = append(c.updates, fields)
	return nil
}

func (c *stubCatalog) updateCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updates)
}

// stubGenerator returns a fixed raw response and counts invocations.
type stubGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (g *stubGenerator) GenerateProductData(ctx context.Context, product domain.ProductSnapshot) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// memAuditRepo stores analyses keyed by product id.
type memAuditRepo struct {
	mu     sync.Mutex
	audits map[uint64]domain.Analysis
}

func newMemAuditRepo() *memAuditRepo {
	return &memAuditRepo{audits: make(map[uint64]domain.Analysis)}
}

func (r *memAuditRepo) SaveAudit(ctx context.Context, shop string, p domain.ProductSnapshot, a domain.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits[p.ID] = a
	return nil
}

func (r *memAuditRepo) CountByFindings(ctx context.Context, shop string) ([]ports.FindingBucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byCount := make(map[int]int)
	for _, a := range r.audits {
		byCount[a.FindingCount()]++
	}
	buckets := make([]ports.FindingBucket, 0, len(byCount))
	for count, products := range byCount {
		buckets = append(buckets, ports.FindingBucket{FindingCount: count, Products: products})
	}
	return buckets, nil
}

type memIssueRepo struct {
	mu     sync.Mutex
	counts map[uint64]domain.IssueCounts
}

func newMemIssueRepo() *memIssueRepo {
	return &memIssueRepo{counts: make(map[uint64]domain.IssueCounts)}
}

func (r *memIssueRepo) SaveCounts(ctx context.Context, shop string, productID uint64, counts domain.IssueCounts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[productID] = counts
	return nil
}

func (r *memIssueRepo) SumCounts(ctx context.Context, shop string) (domain.IssueCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total domain.IssueCounts
	for _, c := range r.counts {
		total.Add(c)
	}
	return total, nil
}

var _ ports.EnhancementRepository = (*memEnhancementRepo)(nil)
var _ ports.ShopRepository = (*memShopRepo)(nil)
var _ ports.CreditLedger = (*memLedger)(nil)
var _ ports.CatalogClient = (*stubCatalog)(nil)
var _ ports.TextGenerator = (*stubGenerator)(nil)
var _ ports.ProductAuditRepository = (*memAuditRepo)(nil)
var _ ports.IssueRepository = (*memIssueRepo)(nil)
