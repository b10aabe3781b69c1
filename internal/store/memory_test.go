package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cryptofolio/portfolio-engine/internal/model"
)

func tx(user, asset, kind string, qty float64) *model.Transaction {
	return &model.Transaction{
		ID:       user + "-" + asset + "-" + kind,
		UserID:   user,
		Asset:    asset,
		Kind:     kind,
		Quantity: decimal.NewFromFloat(qty),
		Price:    decimal.NewFromInt(100),
	}
}

func TestMemoryLedger_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	for i, kind := range []string{"buy", "buy", "sell"} {
		tr := tx("alice", "bitcoin", kind, float64(i+1))
		tr.ID = kind + "-" + string(rune('a'+i))
		if err := l.AppendTransaction(ctx, tr); err != nil {
			t.Fatalf("append: %v", err)
		}
		if tr.Seq == 0 {
			t.Error("append must assign a sequence number")
		}
	}

	txs, err := l.GetTransactions(ctx, "alice", "bitcoin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Seq <= txs[i-1].Seq {
			t.Errorf("sequence not increasing: %d then %d", txs[i-1].Seq, txs[i].Seq)
		}
	}
}

func TestMemoryLedger_KeyedByUserAndAsset(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	l.AppendTransaction(ctx, tx("alice", "bitcoin", "buy", 1))
	l.AppendTransaction(ctx, tx("alice", "ethereum", "buy", 2))
	l.AppendTransaction(ctx, tx("bob", "bitcoin", "buy", 3))

	txs, _ := l.GetTransactions(ctx, "alice", "bitcoin")
	if len(txs) != 1 {
		t.Errorf("alice/bitcoin: expected 1, got %d", len(txs))
	}

	byAsset, _ := l.GetTransactionsByUser(ctx, "alice")
	if len(byAsset) != 2 {
		t.Errorf("alice assets: expected 2, got %d", len(byAsset))
	}
	if _, ok := byAsset["bitcoin"]; !ok {
		t.Error("alice should hold bitcoin")
	}

	empty, _ := l.GetTransactionsByUser(ctx, "nobody")
	if len(empty) != 0 {
		t.Errorf("unknown user: expected empty map, got %v", empty)
	}
}

func TestMemoryLedger_ListAssets(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	l.AppendTransaction(ctx, tx("alice", "ethereum", "buy", 1))
	l.AppendTransaction(ctx, tx("bob", "bitcoin", "buy", 1))
	l.AppendTransaction(ctx, tx("bob", "ethereum", "buy", 1))

	assets, err := l.ListAssets(ctx)
	if err != nil {
		t.Fatalf("list assets: %v", err)
	}
	if !reflect.DeepEqual(assets, []string{"bitcoin", "ethereum"}) {
		t.Errorf("expected [bitcoin ethereum], got %v", assets)
	}
}

func TestMemoryLedger_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	l.AppendTransaction(ctx, tx("alice", "bitcoin", "buy", 1))

	txs, _ := l.GetTransactions(ctx, "alice", "bitcoin")
	txs[0].Quantity = decimal.NewFromInt(999)

	again, _ := l.GetTransactions(ctx, "alice", "bitcoin")
	if !again[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("ledger state was mutated through a read: %s", again[0].Quantity)
	}
}
