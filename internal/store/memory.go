package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cryptofolio/portfolio-engine/internal/model"
)

// MemoryLedger implements Ledger with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryLedger struct {
	mu      sync.RWMutex
	txs     map[string]map[string][]model.Transaction // userID → asset → ordered list
	nextSeq int64
}

// NewMemoryLedger creates a new in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		txs: make(map[string]map[string][]model.Transaction),
	}
}

func (l *MemoryLedger) AppendTransaction(_ context.Context, tx *model.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextSeq++
	// Store a copy to avoid external mutation.
	stored := *tx
	stored.Seq = l.nextSeq
	tx.Seq = l.nextSeq

	byAsset, ok := l.txs[tx.UserID]
	if !ok {
		byAsset = make(map[string][]model.Transaction)
		l.txs[tx.UserID] = byAsset
	}
	byAsset[tx.Asset] = append(byAsset[tx.Asset], stored)
	return nil
}

func (l *MemoryLedger) GetTransactions(_ context.Context, userID, asset string) ([]model.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.txs[userID][asset]
	out := make([]model.Transaction, len(list))
	copy(out, list)
	return out, nil
}

func (l *MemoryLedger) GetTransactionsByUser(_ context.Context, userID string) (map[string][]model.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string][]model.Transaction)
	for asset, list := range l.txs[userID] {
		out := make([]model.Transaction, len(list))
		copy(out, list)
		result[asset] = out
	}
	return result, nil
}

func (l *MemoryLedger) ListAssets(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, byAsset := range l.txs {
		for asset := range byAsset {
			seen[asset] = struct{}{}
		}
	}

	assets := make([]string, 0, len(seen))
	for asset := range seen {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets, nil
}
