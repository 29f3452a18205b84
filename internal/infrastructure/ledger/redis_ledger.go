// Package ledger implements the credit-ledger port on Redis. The balance
// check and debit run as one Lua script, so concurrent debits for the same
// shop can never double-spend.
package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/ports"
)

// debitScript atomically compares the balance against the amount and debits
// when sufficient. Returns the new balance, or -1 when the balance is short.
var debitScript = redis.NewScript(`
local balance = tonumber(redis.call('GET', KEYS[1]) or '0')
local amount = tonumber(ARGV[1])
if balance < amount then
  return -1
end
return redis.call('DECRBY', KEYS[1], amount)
`)

// RedisLedger is the Redis-backed credit ledger.
type RedisLedger struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisLedger creates a credit ledger on the given Redis client.
func NewRedisLedger(client *redis.Client, logger zerolog.Logger) ports.CreditLedger {
	return &RedisLedger{client: client, logger: logger}
}

func creditKey(shop string) string {
	return "credit:" + shop
}

// Balance returns the shop's current balance; a missing key reads as zero.
func (l *RedisLedger) Balance(ctx context.Context, shop string) (int64, error) {
	balance, err := l.client.Get(ctx, creditKey(shop)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for %s: %w", shop, err)
	}
	return balance, nil
}

// DebitIfSufficient atomically debits amount, failing with
// domain.ErrInsufficientCredit when the balance is short.
func (l *RedisLedger) DebitIfSufficient(ctx context.Context, shop string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: non-positive debit amount %d", domain.ErrInvalidInput, amount)
	}

	result, err := debitScript.Run(ctx, l.client, []string{creditKey(shop)}, amount).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to debit %s: %w", shop, err)
	}
	if result < 0 {
		return 0, fmt.Errorf("%w: shop %s", domain.ErrInsufficientCredit, shop)
	}

	l.logger.Debug().
		Str("shop", shop).
		Int64("amount", amount).
		Int64("balance", result).
		Msg("Credit debited")

	return result, nil
}

// Credit adds amount to the shop's balance.
func (l *RedisLedger) Credit(ctx context.Context, shop string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: non-positive credit amount %d", domain.ErrInvalidInput, amount)
	}

	balance, err := l.client.IncrBy(ctx, creditKey(shop), amount).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to credit %s: %w", shop, err)
	}
	return balance, nil
}
