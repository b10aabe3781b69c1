// Package store defines the persistence interface for the transaction
// ledger. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing).
package store

import (
	"context"

	"github.com/cryptofolio/portfolio-engine/internal/model"
)

// Ledger is the append-only transaction store, keyed by (user, asset).
// Reads always return transactions in insertion order — that order is the
// FIFO order the accounting engine folds over, so implementations must
// preserve it exactly and must neither duplicate nor drop transactions on a
// successful append.
type Ledger interface {
	// AppendTransaction records exactly one transaction at the end of the
	// (user, asset) list. The append is atomic: concurrent writers for the
	// same asset may interleave but can never lose or reorder each other's
	// writes.
	AppendTransaction(ctx context.Context, tx *model.Transaction) error

	// GetTransactions returns the ordered transaction list for one
	// (user, asset). An empty list is valid.
	GetTransactions(ctx context.Context, userID, asset string) ([]model.Transaction, error)

	// GetTransactionsByUser returns every asset's ordered transaction list
	// for a user. An empty map is valid (no transactions yet).
	GetTransactionsByUser(ctx context.Context, userID string) (map[string][]model.Transaction, error)

	// ListAssets returns the distinct assets present in the ledger across
	// all users. Used by the quote refresh job.
	ListAssets(ctx context.Context) ([]string, error)
}
