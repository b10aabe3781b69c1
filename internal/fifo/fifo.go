// Package fifo implements the lot-matching accounting engine.
//
// Holdings are modeled as a queue of open lots: each buy opens a lot at its
// execution price, each sell consumes lots from the front of the queue
// (oldest first) until the sell quantity is exhausted. Remaining lots define
// the open quantity and cost basis of a position; everything else is derived
// from those two numbers plus an externally supplied current price.
//
// The engine is pure and stateless: every function is a fold over the
// transaction slice it is given, in the order given. It performs no I/O,
// holds nothing between calls, and is safe to invoke concurrently for
// different assets.
//
// All monetary values use shopspring/decimal — never float64 for money.
package fifo

import (
	"github.com/shopspring/decimal"

	"github.com/cryptofolio/portfolio-engine/internal/model"
)

var hundred = decimal.NewFromInt(100)

// lot is an open buy position: quantity remaining and the unit price it was
// opened at. Lots exist only during a single computation pass.
type lot struct {
	qty   decimal.Decimal
	price decimal.Decimal
}

// ComputePosition folds an ordered transaction list into the final position
// for one asset, matching sells against buys first-in-first-out.
//
// Rules:
//   - Transactions are processed exactly in slice order.
//   - A buy appends a lot; a sell consumes from the oldest lot forward.
//   - A sell larger than the total open quantity drains every lot and the
//     unmatched remainder is discarded: open quantity and cost basis clamp
//     at zero, never negative, never a short position.
//   - Unknown kinds and non-positive quantities are zero-effect no-ops; the
//     fold continues over the rest of the list.
//   - Every division site is defined as zero when its denominator is zero.
func ComputePosition(txs []model.Transaction, currentPrice decimal.Decimal) model.AssetPosition {
	var lots []lot
	openQty := decimal.Zero
	costBasis := decimal.Zero

	for _, tx := range txs {
		switch tx.Kind {
		case model.KindBuy:
			if tx.Quantity.IsNegative() {
				continue
			}
			lots = append(lots, lot{qty: tx.Quantity, price: tx.Price})
			openQty = openQty.Add(tx.Quantity)
			costBasis = costBasis.Add(tx.Quantity.Mul(tx.Price))

		case model.KindSell:
			remaining := tx.Quantity
			for remaining.IsPositive() && len(lots) > 0 {
				front := &lots[0]
				if front.qty.LessThanOrEqual(remaining) {
					// Front lot fully consumed.
					remaining = remaining.Sub(front.qty)
					openQty = openQty.Sub(front.qty)
					costBasis = costBasis.Sub(front.qty.Mul(front.price))
					lots = lots[1:]
				} else {
					// Partial consumption of the front lot.
					front.qty = front.qty.Sub(remaining)
					openQty = openQty.Sub(remaining)
					costBasis = costBasis.Sub(remaining.Mul(front.price))
					remaining = decimal.Zero
				}
			}
			// Any leftover sell quantity is unmatched and discarded.
		}
	}

	pos := model.AssetPosition{
		OpenQuantity: openQty,
		CostBasis:    costBasis,
		AverageCost:  decimal.Zero,
		CurrentPrice: currentPrice,
		MarketValue:  openQty.Mul(currentPrice),
	}

	if openQty.IsPositive() {
		pos.AverageCost = costBasis.Div(openQty)
	}
	if openQty.IsPositive() && pos.AverageCost.IsPositive() {
		pos.UnrealizedPnLPercent = currentPrice.Sub(pos.AverageCost).
			Div(pos.AverageCost).Mul(hundred)
	} else {
		pos.UnrealizedPnLPercent = decimal.Zero
	}

	return pos
}

// RealizedPnL reports the one-shot profit or loss for a sell about to be
// recorded, using the average cost over the transactions recorded so far:
//
//	realized = (sellPrice − averageCostBefore) × sellQty
//
// This is deliberately an average-cost figure, not a FIFO lot match: the lot
// queue governs the remaining position and cost basis going forward, while
// the displayed trade-level P&L is an average-cost approximation. The two
// diverge when open lots carry very different prices; that divergence is
// expected. The figure is reported once and never persisted.
func RealizedPnL(priorTxs []model.Transaction, sellQty, sellPrice decimal.Decimal) decimal.Decimal {
	avg := ComputePosition(priorTxs, decimal.Zero).AverageCost
	return sellPrice.Sub(avg).Mul(sellQty)
}

// ComputePortfolio folds per-asset positions into portfolio totals. Only
// positions with a positive open quantity count; closed positions are
// excluded entirely, historical cost included. NetPnLPercent is zero when
// the total cost basis is zero.
func ComputePortfolio(positions map[string]model.AssetPosition) model.PortfolioSummary {
	totalCost := decimal.Zero
	totalValue := decimal.Zero

	for _, pos := range positions {
		if !pos.OpenQuantity.IsPositive() {
			continue
		}
		totalCost = totalCost.Add(pos.CostBasis)
		totalValue = totalValue.Add(pos.MarketValue)
	}

	summary := model.PortfolioSummary{
		TotalCostBasis:   totalCost,
		TotalMarketValue: totalValue,
		NetPnL:           totalValue.Sub(totalCost),
		NetPnLPercent:    decimal.Zero,
	}
	if totalCost.IsPositive() {
		summary.NetPnLPercent = summary.NetPnL.Div(totalCost).Mul(hundred)
	}
	return summary
}
