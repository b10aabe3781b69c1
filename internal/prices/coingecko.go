package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// DefaultCoinGeckoURL is the public CoinGecko API base URL.
const DefaultCoinGeckoURL = "https://api.coingecko.com"

// CoinGecko implements Source against the CoinGecko simple-price endpoint.
// Asset identifiers are CoinGecko coin ids ("bitcoin", "ethereum", ...).
type CoinGecko struct {
	client *resty.Client
}

// NewCoinGecko creates a CoinGecko client. An empty baseURL selects the
// public API.
func NewCoinGecko(baseURL string, timeout time.Duration) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &CoinGecko{client: client}
}

func (c *CoinGecko) GetQuotes(ctx context.Context, ids []string) (map[string]Quote, error) {
	if len(ids) == 0 {
		return map[string]Quote{}, nil
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"ids":                 strings.Join(ids, ","),
			"vs_currencies":       "usd",
			"include_24hr_change": "true",
		}).
		Get("/api/v3/simple/price")
	if err != nil {
		return nil, fmt.Errorf("coingecko request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("coingecko returned status %d", resp.StatusCode())
	}

	// Response shape: {"bitcoin": {"usd": 64000.1, "usd_24h_change": -1.2}, ...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("coingecko response: %w", err)
	}

	quotes := make(map[string]Quote, len(raw))
	for id, fields := range raw {
		usd, ok := fields["usd"]
		if !ok {
			slog.Warn("quote missing usd price", "asset", id)
			continue
		}
		quotes[id] = Quote{
			USD:       decimal.NewFromFloat(usd),
			Change24h: decimal.NewFromFloat(fields["usd_24h_change"]),
		}
	}
	return quotes, nil
}
