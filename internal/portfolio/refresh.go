package portfolio

import (
	"context"
	"log/slog"
	"time"

	"github.com/cryptofolio/portfolio-engine/internal/metrics"
	"github.com/cryptofolio/portfolio-engine/internal/prices"
	"github.com/cryptofolio/portfolio-engine/internal/store"
)

// QuoteRefresher periodically re-fetches quotes for every asset present in
// the ledger, warms the quote cache, and broadcasts the fresh prices to
// WebSocket clients. Scheduled from main via the interval scheduler.
type QuoteRefresher struct {
	ledger   store.Ledger
	upstream prices.Source
	cache    *prices.CachedSource // optional; nil when Redis is not configured
	hub      *Hub                 // optional
}

// NewQuoteRefresher creates a refresher. cache and hub may be nil.
func NewQuoteRefresher(ledger store.Ledger, upstream prices.Source, cache *prices.CachedSource, hub *Hub) *QuoteRefresher {
	return &QuoteRefresher{
		ledger:   ledger,
		upstream: upstream,
		cache:    cache,
		hub:      hub,
	}
}

// Refresh runs one refresh pass.
func (r *QuoteRefresher) Refresh(ctx context.Context) error {
	start := time.Now()

	assets, err := r.ledger.ListAssets(ctx)
	if err != nil {
		metrics.QuoteRefreshFailures.Inc()
		return err
	}
	if len(assets) == 0 {
		return nil
	}

	// Always hit the upstream directly: the point of the pass is fresh data.
	quotes, err := r.upstream.GetQuotes(ctx, assets)
	if err != nil {
		metrics.QuoteRefreshFailures.Inc()
		return err
	}

	if r.cache != nil {
		r.cache.Warm(ctx, quotes)
	}

	if r.hub != nil {
		byAsset := make(map[string]string, len(quotes))
		for asset, q := range quotes {
			byAsset[asset] = q.USD.String()
		}
		r.hub.Broadcast(Event{Type: "quotes_refreshed", Quotes: byAsset})
	}

	metrics.QuoteRefreshDuration.Observe(time.Since(start).Seconds())
	slog.Debug("quotes refreshed", "assets", len(assets), "quoted", len(quotes))
	return nil
}
