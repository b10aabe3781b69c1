// Package model defines the core domain types shared across the portfolio
// engine. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds. The ledger stores only these two; anything else is
// normalized at the API boundary and treated as a no-op by the engine.
const (
	KindBuy  = "buy"
	KindSell = "sell"
)

// Transaction is an immutable record of a buy or sell for one asset.
// Once appended to the ledger, these are never modified or deleted.
// Seq is assigned by the ledger and defines processing order: transactions
// are always folded in insertion order, never re-sorted by any other field.
type Transaction struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Asset     string          `json:"asset" db:"asset"` // e.g. "bitcoin", "ethereum"
	Kind      string          `json:"kind" db:"kind"`   // "buy" or "sell"
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"` // unit price in USD
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	Seq       int64           `json:"seq" db:"seq"`
}

// AssetPosition is the derived state of one asset's holdings after folding
// its full transaction history. Never persisted; recomputed on every read.
type AssetPosition struct {
	Asset                string          `json:"asset"`
	OpenQuantity         decimal.Decimal `json:"open_quantity"`
	CostBasis            decimal.Decimal `json:"cost_basis"`    // Σ remaining lot qty × lot price
	AverageCost          decimal.Decimal `json:"average_cost"`  // costBasis / openQuantity, 0 when flat
	CurrentPrice         decimal.Decimal `json:"current_price"` // supplied externally
	MarketValue          decimal.Decimal `json:"market_value"`
	UnrealizedPnLPercent decimal.Decimal `json:"unrealized_pnl_percent"`
	Change24h            decimal.Decimal `json:"change_24h"` // 24h price change %, from the quote source
}

// PortfolioSummary aggregates all open positions for a user. Positions with
// zero open quantity contribute nothing — fully closed positions vanish from
// the totals, including their historical cost.
type PortfolioSummary struct {
	TotalCostBasis   decimal.Decimal `json:"total_cost_basis"`
	TotalMarketValue decimal.Decimal `json:"total_market_value"`
	NetPnL           decimal.Decimal `json:"net_pnl"`
	NetPnLPercent    decimal.Decimal `json:"net_pnl_percent"`
}
