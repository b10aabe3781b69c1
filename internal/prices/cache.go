package prices

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedSource wraps a Source with a Redis read-through cache, one key per
// asset. Quotes are cached individually so a request for a partially cached
// set only hits upstream for the missing assets.
type CachedSource struct {
	upstream Source
	rdb      *redis.Client
	ttl      time.Duration
}

// NewCachedSource creates a cached wrapper around a quote source.
func NewCachedSource(upstream Source, rdb *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{
		upstream: upstream,
		rdb:      rdb,
		ttl:      ttl,
	}
}

func (s *CachedSource) GetQuotes(ctx context.Context, ids []string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(ids))
	var missing []string

	for _, id := range ids {
		data, err := s.rdb.Get(ctx, quoteKey(id)).Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}
		var q Quote
		if json.Unmarshal(data, &q) != nil {
			missing = append(missing, id)
			continue
		}
		quotes[id] = q
	}

	if len(missing) == 0 {
		return quotes, nil
	}

	fresh, err := s.upstream.GetQuotes(ctx, missing)
	if err != nil {
		return nil, err
	}

	for id, q := range fresh {
		quotes[id] = q
		if data, err := json.Marshal(q); err == nil {
			s.rdb.Set(ctx, quoteKey(id), data, s.ttl)
		}
	}
	return quotes, nil
}

// Warm stores already-fetched quotes in the cache. Used by the refresh job
// so interactive reads hit warm keys.
func (s *CachedSource) Warm(ctx context.Context, quotes map[string]Quote) {
	for id, q := range quotes {
		if data, err := json.Marshal(q); err == nil {
			s.rdb.Set(ctx, quoteKey(id), data, s.ttl)
		}
	}
}

func quoteKey(id string) string { return "quote:" + id }
