package ports

import "context"

// CreditLedger is the metered credit balance per shop. The core treats the
// balance as a precondition gate, not an owned resource.
type CreditLedger interface {
	// Balance returns the shop's current credit balance.
	Balance(ctx context.Context, shop string) (int64, error)

	// DebitIfSufficient atomically checks the balance and debits amount,
	// returning the new balance. It returns domain.ErrInsufficientCredit when
	// the balance is below amount, leaving it unchanged. The check and the
	// debit are one atomic step with respect to concurrent debits for the
	// same shop.
	DebitIfSufficient(ctx context.Context, shop string, amount int64) (int64, error)

	// Credit adds amount to the shop's balance.
	Credit(ctx context.Context, shop string, amount int64) (int64, error)
}
