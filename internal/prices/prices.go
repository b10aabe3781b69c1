// Package prices retrieves current market quotes for assets. The engine
// never calls this directly — quotes are fetched by the API layer and the
// refresh job, then handed to the accounting engine as plain input.
package prices

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is the current market state of one asset.
type Quote struct {
	USD       decimal.Decimal `json:"usd"`
	Change24h decimal.Decimal `json:"usd_24h_change"`
}

// Source returns quotes for a set of asset identifiers. Assets the source
// does not know are simply absent from the result; callers default the
// price to zero.
type Source interface {
	GetQuotes(ctx context.Context, ids []string) (map[string]Quote, error)
}

// StaticSource serves a fixed quote map. Used for testing.
type StaticSource struct {
	Quotes map[string]Quote
}

func (s *StaticSource) GetQuotes(_ context.Context, ids []string) (map[string]Quote, error) {
	result := make(map[string]Quote, len(ids))
	for _, id := range ids {
		if q, ok := s.Quotes[id]; ok {
			result[id] = q
		}
	}
	return result, nil
}
