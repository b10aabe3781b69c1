package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCoinGecko_GetQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/simple/price" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "bitcoin,ethereum" {
			t.Errorf("unexpected ids param: %s", got)
		}
		if got := r.URL.Query().Get("vs_currencies"); got != "usd" {
			t.Errorf("unexpected vs_currencies param: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"bitcoin":  {"usd": 64000.5, "usd_24h_change": -1.25},
			"ethereum": {"usd": 3200}
		}`))
	}))
	defer srv.Close()

	cg := NewCoinGecko(srv.URL, 5*time.Second)
	quotes, err := cg.GetQuotes(context.Background(), []string{"bitcoin", "ethereum"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	btc, ok := quotes["bitcoin"]
	if !ok {
		t.Fatal("missing bitcoin quote")
	}
	if !btc.USD.Equal(decimal.NewFromFloat(64000.5)) {
		t.Errorf("bitcoin price: expected 64000.5, got %s", btc.USD)
	}
	if !btc.Change24h.Equal(decimal.NewFromFloat(-1.25)) {
		t.Errorf("bitcoin 24h change: expected -1.25, got %s", btc.Change24h)
	}

	// Missing usd_24h_change defaults to zero.
	eth := quotes["ethereum"]
	if !eth.Change24h.IsZero() {
		t.Errorf("ethereum 24h change: expected 0, got %s", eth.Change24h)
	}
}

func TestCoinGecko_MissingAssetAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin": {"usd": 100}}`))
	}))
	defer srv.Close()

	cg := NewCoinGecko(srv.URL, 5*time.Second)
	quotes, err := cg.GetQuotes(context.Background(), []string{"bitcoin", "unknowncoin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := quotes["unknowncoin"]; ok {
		t.Error("unknown asset should be absent, not zero-filled")
	}
}

func TestCoinGecko_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cg := NewCoinGecko(srv.URL, 5*time.Second)
	if _, err := cg.GetQuotes(context.Background(), []string{"bitcoin"}); err == nil {
		t.Error("expected error on upstream 429")
	}
}

func TestCoinGecko_EmptyIDs(t *testing.T) {
	cg := NewCoinGecko("http://unreachable.invalid", time.Second)
	quotes, err := cg.GetQuotes(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("expected empty quote map, got %v", quotes)
	}
}

func TestStaticSource(t *testing.T) {
	src := &StaticSource{Quotes: map[string]Quote{
		"bitcoin": {USD: decimal.NewFromInt(150)},
	}}

	quotes, err := src.GetQuotes(context.Background(), []string{"bitcoin", "ethereum"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 1 {
		t.Errorf("expected 1 quote, got %d", len(quotes))
	}
	if !quotes["bitcoin"].USD.Equal(decimal.NewFromInt(150)) {
		t.Errorf("bitcoin price: expected 150, got %s", quotes["bitcoin"].USD)
	}
}
