package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cryptofolio/portfolio-engine/internal/model"
)

// PostgresLedger implements Ledger using PostgreSQL as the source of truth.
// Transactions are one row each in an append-only table with a BIGSERIAL
// sequence column: an append is a single INSERT, so concurrent writers for
// the same asset cannot lose or reorder each other's writes, and reads
// ordered by seq reproduce insertion order exactly.
//
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a new PostgreSQL-backed ledger.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

func (l *PostgresLedger) AppendTransaction(ctx context.Context, tx *model.Transaction) error {
	err := l.pool.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, asset, kind, quantity, price, recorded_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7)
		 RETURNING seq`,
		tx.ID, tx.UserID, tx.Asset, tx.Kind,
		tx.Quantity.String(), tx.Price.String(), tx.Timestamp,
	).Scan(&tx.Seq)
	if err != nil {
		return fmt.Errorf("append transaction %s/%s: %w", tx.UserID, tx.Asset, err)
	}
	return nil
}

func (l *PostgresLedger) GetTransactions(ctx context.Context, userID, asset string) ([]model.Transaction, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, user_id, asset, kind, quantity::TEXT, price::TEXT, recorded_at, seq
		 FROM transactions
		 WHERE user_id = $1 AND asset = $2
		 ORDER BY seq`, userID, asset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (l *PostgresLedger) GetTransactionsByUser(ctx context.Context, userID string) (map[string][]model.Transaction, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, user_id, asset, kind, quantity::TEXT, price::TEXT, recorded_at, seq
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]model.Transaction)
	for _, tx := range txs {
		result[tx.Asset] = append(result[tx.Asset], tx)
	}
	return result, nil
}

func (l *PostgresLedger) ListAssets(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT DISTINCT asset FROM transactions ORDER BY asset`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var asset string
		if err := rows.Scan(&asset); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// scanTransactions reads pgx rows into Transaction slices.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanTransactions(rows pgxRows) ([]model.Transaction, error) {
	var txs []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var qtyS, priceS string

		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Asset, &tx.Kind,
			&qtyS, &priceS, &tx.Timestamp, &tx.Seq); err != nil {
			return nil, err
		}

		tx.Quantity, _ = decimal.NewFromString(qtyS)
		tx.Price, _ = decimal.NewFromString(priceS)

		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
