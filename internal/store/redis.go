package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cryptofolio/portfolio-engine/internal/model"
)

// CachedLedger wraps a primary Ledger (PostgreSQL) with a Redis read-through
// cache of per-user transaction lists. Appends go to the primary ledger and
// invalidate the cache; reads check Redis first then fall back to the
// primary.
type CachedLedger struct {
	primary Ledger
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedLedger creates a cached wrapper around a primary ledger.
func NewCachedLedger(primary Ledger, rdb *redis.Client, ttl time.Duration) *CachedLedger {
	return &CachedLedger{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (l *CachedLedger) AppendTransaction(ctx context.Context, tx *model.Transaction) error {
	if err := l.primary.AppendTransaction(ctx, tx); err != nil {
		return err
	}
	// Invalidate this user's cached lists; next read re-populates.
	l.rdb.Del(ctx, txsKey(tx.UserID, tx.Asset), userKey(tx.UserID))
	return nil
}

func (l *CachedLedger) GetTransactions(ctx context.Context, userID, asset string) ([]model.Transaction, error) {
	data, err := l.rdb.Get(ctx, txsKey(userID, asset)).Bytes()
	if err == nil {
		var txs []model.Transaction
		if json.Unmarshal(data, &txs) == nil {
			return txs, nil
		}
	}

	// Cache miss: read from primary.
	txs, err := l.primary.GetTransactions(ctx, userID, asset)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(txs); err == nil {
		l.rdb.Set(ctx, txsKey(userID, asset), data, l.ttl)
	}
	return txs, nil
}

func (l *CachedLedger) GetTransactionsByUser(ctx context.Context, userID string) (map[string][]model.Transaction, error) {
	data, err := l.rdb.Get(ctx, userKey(userID)).Bytes()
	if err == nil {
		var byAsset map[string][]model.Transaction
		if json.Unmarshal(data, &byAsset) == nil {
			return byAsset, nil
		}
	}

	byAsset, err := l.primary.GetTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(byAsset); err == nil {
		l.rdb.Set(ctx, userKey(userID), data, l.ttl)
	}
	return byAsset, nil
}

// ListAssets is not cached: it feeds the background quote refresh job, which
// tolerates the primary's latency.
func (l *CachedLedger) ListAssets(ctx context.Context) ([]string, error) {
	return l.primary.ListAssets(ctx)
}

func txsKey(userID, asset string) string { return fmt.Sprintf("txs:%s:%s", userID, asset) }
func userKey(userID string) string       { return fmt.Sprintf("txs:%s", userID) }
