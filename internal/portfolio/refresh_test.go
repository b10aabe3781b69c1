package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cryptofolio/portfolio-engine/internal/model"
	"github.com/cryptofolio/portfolio-engine/internal/prices"
	"github.com/cryptofolio/portfolio-engine/internal/store"
)

type failingSource struct{}

func (failingSource) GetQuotes(context.Context, []string) (map[string]prices.Quote, error) {
	return nil, errors.New("upstream down")
}

func seedLedger(t *testing.T, l *store.MemoryLedger, assets ...string) {
	t.Helper()
	for _, asset := range assets {
		err := l.AppendTransaction(context.Background(), &model.Transaction{
			ID:       "seed-" + asset,
			UserID:   "alice",
			Asset:    asset,
			Kind:     model.KindBuy,
			Quantity: decimal.NewFromInt(1),
			Price:    decimal.NewFromInt(100),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestQuoteRefresher_EmptyLedgerIsNoop(t *testing.T) {
	r := NewQuoteRefresher(store.NewMemoryLedger(), failingSource{}, nil, nil)

	// No assets → the failing upstream is never consulted.
	if err := r.Refresh(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestQuoteRefresher_FetchesLedgerAssets(t *testing.T) {
	ledger := store.NewMemoryLedger()
	seedLedger(t, ledger, "bitcoin", "ethereum")

	src := &prices.StaticSource{Quotes: map[string]prices.Quote{
		"bitcoin":  {USD: decimal.NewFromInt(64000)},
		"ethereum": {USD: decimal.NewFromInt(3200)},
	}}

	r := NewQuoteRefresher(ledger, src, nil, nil)
	if err := r.Refresh(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestQuoteRefresher_UpstreamFailureSurfaces(t *testing.T) {
	ledger := store.NewMemoryLedger()
	seedLedger(t, ledger, "bitcoin")

	r := NewQuoteRefresher(ledger, failingSource{}, nil, nil)
	if err := r.Refresh(context.Background()); err == nil {
		t.Error("expected error when upstream fails")
	}
}
