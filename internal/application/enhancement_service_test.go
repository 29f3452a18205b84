package application

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/infrastructure/metrics"
)

const (
	testShop      = "demo.myshopify.com"
	testProductID = uint64(101)
)

var validResponse = "```json\n" + `{
  "newTitle": "Organic Cotton Tee",
  "newDescription": "A soft, durable organic cotton tee for everyday wear.",
  "newTags": ["cotton", "organic"],
  "newSeoTitle": "Organic Cotton Tee | Demo Shop",
  "newSeoDescription": "Shop the organic cotton tee, ethically made and built to last.",
  "newCategoryName": "Apparel",
  "newProductType": "T-Shirt"
}` + "\n```"

type enhancementFixture struct {
	svc     *EnhancementService
	repo    *memEnhancementRepo
	shops   *memShopRepo
	catalog *stubCatalog
	gen     *stubGenerator
	ledger  *memLedger
}

func newEnhancementFixture(t *testing.T) *enhancementFixture {
	t.Helper()

	repo := newMemEnhancementRepo()
	shops := newMemShopRepo(&domain.Shop{Domain: testShop, AccessToken: "tok"})
	catalog := &stubCatalog{products: []domain.ProductSnapshot{{ID: testProductID, Title: "tee"}}}
	gen := &stubGenerator{response: validResponse}
	ledger := newMemLedger()

	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	svc := NewEnhancementService(repo, shops, catalog, gen, ledger, metrics.New(), logger)

	return &enhancementFixture{svc: svc, repo: repo, shops: shops, catalog: catalog, gen: gen, ledger: ledger}
}

func (f *enhancementFixture) seedRecord(pending bool) {
	f.repo.put(domain.EnhancementRecord{
		ProductID:           testProductID,
		ShopDomain:          testShop,
		Status:              domain.EnhancementStatusNew,
		AICorrectionPending: pending,
		FindingCount:        3,
		CreatedAt:           time.Now(),
	})
}

func TestSelectForEnhancement(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(false)

	err := f.svc.SelectForEnhancement(context.Background(), []uint64{testProductID})
	require.NoError(t, err)
	assert.True(t, f.repo.snapshot(testProductID).AICorrectionPending)
}

func TestSelectForEnhancementEmptyBatch(t *testing.T) {
	f := newEnhancementFixture(t)

	err := f.svc.SelectForEnhancement(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSelectForEnhancementUnknownIDMarksNothing(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(false)

	err := f.svc.SelectForEnhancement(context.Background(), []uint64{testProductID, 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, f.repo.snapshot(testProductID).AICorrectionPending, "known id must not be marked when the batch fails")
}

func TestGenerateStoresProposalAndDebits(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 250)

	fields, err := f.svc.Generate(context.Background(), testProductID)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "Organic Cotton Tee", fields.NewTitle)
	assert.Equal(t, []string{"cotton", "organic"}, fields.NewTags)

	rec := f.repo.snapshot(testProductID)
	require.NotNil(t, rec.ProposedFields)
	assert.Equal(t, *fields, *rec.ProposedFields)
	assert.True(t, rec.AICorrectionPending, "pending survives until approve or reject")

	balance, _ := f.ledger.Balance(context.Background(), testShop)
	assert.Equal(t, int64(150), balance)

	h, err := f.repo.LatestHistory(context.Background(), testProductID)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, *fields, h.ProposedFields)
}

func TestGenerateInsufficientCreditLeavesStateUntouched(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, GenerationCost-1)

	before := f.repo.snapshot(testProductID)

	fields, err := f.svc.Generate(context.Background(), testProductID)
	assert.ErrorIs(t, err, domain.ErrInsufficientCredit)
	assert.Nil(t, fields)
	assert.Equal(t, 0, f.gen.callCount(), "provider must not be called when credit is short")

	after := f.repo.snapshot(testProductID)
	assert.Equal(t, before, after)

	balance, _ := f.ledger.Balance(context.Background(), testShop)
	assert.Equal(t, GenerationCost-1, balance)
}

func TestGenerateNotSelected(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(false)
	f.ledger.Credit(context.Background(), testShop, 500)

	_, err := f.svc.Generate(context.Background(), testProductID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.gen.callCount())
}

func TestGenerateUnknownProduct(t *testing.T) {
	f := newEnhancementFixture(t)

	_, err := f.svc.Generate(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateMalformedResponseChargesNothing(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "sorry, I cannot help with that"},
		{"missing key", `{"newTitle":"x","newDescription":"y","newTags":[],"newSeoTitle":"z","newSeoDescription":"w","newCategoryName":"c"}`},
		{"wrong type", `{"newTitle":7,"newDescription":"y","newTags":[],"newSeoTitle":"z","newSeoDescription":"w","newCategoryName":"c","newProductType":"t"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEnhancementFixture(t)
			f.seedRecord(true)
			f.ledger.Credit(context.Background(), testShop, 500)
			f.gen.response = tt.response

			fields, err := f.svc.Generate(context.Background(), testProductID)
			assert.ErrorIs(t, err, domain.ErrMalformedAIResponse)
			assert.Nil(t, fields)

			assert.Nil(t, f.repo.snapshot(testProductID).ProposedFields)
			balance, _ := f.ledger.Balance(context.Background(), testShop)
			assert.Equal(t, int64(500), balance, "a failed parse must not be charged")
		})
	}
}

func TestGenerateProviderErrorChargesNothing(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 500)
	f.gen.err = domain.ErrProviderTimeout

	_, err := f.svc.Generate(context.Background(), testProductID)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)

	balance, _ := f.ledger.Balance(context.Background(), testShop)
	assert.Equal(t, int64(500), balance)
}

func TestGeneratePersistenceFailureStillReturnsProposal(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 500)
	f.repo.failNext = errors.New("connection reset")

	fields, err := f.svc.Generate(context.Background(), testProductID)

	var pErr *domain.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.False(t, pErr.StaleLocal)
	require.NotNil(t, fields, "a parsed proposal outlives the bookkeeping failure")
	assert.Equal(t, "Organic Cotton Tee", fields.NewTitle)

	balance, _ := f.ledger.Balance(context.Background(), testShop)
	assert.Equal(t, int64(500), balance, "debit only happens after the record write")
}

// Two concurrent generates for the same product with credit for exactly one:
// the keyed lock serializes them, the first debits the balance to zero and the
// second is refused at the gate.
func TestGenerateConcurrentSingleCharge(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, GenerationCost)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Generate(context.Background(), testProductID)
		}(i)
	}
	wg.Wait()

	var ok, denied int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientCredit):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "exactly one generation succeeds")
	assert.Equal(t, 1, denied)
	assert.Equal(t, 1, f.gen.callCount(), "the refused call never reaches the provider")

	balance, _ := f.ledger.Balance(context.Background(), testShop)
	assert.Equal(t, int64(0), balance)
}

func TestApprovePushesAndMarksProcessed(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 500)

	_, err := f.svc.Generate(context.Background(), testProductID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(context.Background(), testProductID))

	rec := f.repo.snapshot(testProductID)
	assert.Equal(t, domain.EnhancementStatusProcessed, rec.Status)
	assert.False(t, rec.AICorrectionPending)
	assert.Equal(t, 1, f.catalog.updateCount())
}

func TestApproveIdempotent(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 500)

	_, err := f.svc.Generate(context.Background(), testProductID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Approve(context.Background(), testProductID))

	// Second approve is a no-op success: no second catalog push.
	require.NoError(t, f.svc.Approve(context.Background(), testProductID))
	assert.Equal(t, 1, f.catalog.updateCount())
}

func TestApproveWithoutProposal(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)

	err := f.svc.Approve(context.Background(), testProductID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.catalog.updateCount())
}

func TestApproveRemoteRejectionLeavesRecord(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 500)

	_, err := f.svc.Generate(context.Background(), testProductID)
	require.NoError(t, err)

	f.catalog.updateErr = &domain.RemoteUpdateError{
		Fields: []domain.FieldError{{Field: "title", Message: "can't be blank"}},
	}

	err = f.svc.Approve(context.Background(), testProductID)
	assert.ErrorIs(t, err, domain.ErrRemoteUpdateRejected)

	var remoteErr *domain.RemoteUpdateError
	require.ErrorAs(t, err, &remoteErr)
	assert.Len(t, remoteErr.Fields, 1)

	rec := f.repo.snapshot(testProductID)
	assert.Equal(t, domain.EnhancementStatusNew, rec.Status, "a rejected push leaves the record untouched")
	assert.True(t, rec.AICorrectionPending)
}

func TestApproveStaleLocalAfterPush(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 500)

	_, err := f.svc.Generate(context.Background(), testProductID)
	require.NoError(t, err)

	f.repo.failNext = errors.New("primary stepped down")

	err = f.svc.Approve(context.Background(), testProductID)
	var pErr *domain.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.True(t, pErr.StaleLocal, "the push went through, only the local record is behind")
	assert.Equal(t, 1, f.catalog.updateCount())
}

func TestRejectArchivesWithoutPush(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 500)

	_, err := f.svc.Generate(context.Background(), testProductID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reject(context.Background(), testProductID))

	rec := f.repo.snapshot(testProductID)
	assert.Equal(t, domain.EnhancementStatusArchived, rec.Status)
	assert.False(t, rec.AICorrectionPending)
	assert.Equal(t, 0, f.catalog.updateCount())
}

func TestRejectUnknownProduct(t *testing.T) {
	f := newEnhancementFixture(t)

	err := f.svc.Reject(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProposalFallsBackToHistory(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)
	f.ledger.Credit(context.Background(), testShop, 500)

	fields, err := f.svc.Generate(context.Background(), testProductID)
	require.NoError(t, err)

	got, err := f.svc.Proposal(context.Background(), testProductID)
	require.NoError(t, err)
	assert.Equal(t, fields, got)

	// A record whose live proposal was cleared still answers from history.
	rec := f.repo.snapshot(testProductID)
	rec.ProposedFields = nil
	f.repo.put(*rec)

	got, err = f.svc.Proposal(context.Background(), testProductID)
	require.NoError(t, err)
	assert.Equal(t, *fields, *got)
}

func TestProposalNoneGenerated(t *testing.T) {
	f := newEnhancementFixture(t)
	f.seedRecord(true)

	_, err := f.svc.Proposal(context.Background(), testProductID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
