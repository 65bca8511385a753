package cache

import (
	"context"
	"fmt"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	pkgcache "SwingScan/pkg/cache"
	"SwingScan/pkg/config"
)

const keyPrefix = "candles"

// CachingProvider decorates a CandleProvider with a short-TTL window
// cache. A tick evaluating many detectors over the same symbol reuses
// one fetch; the TTL stays below the shortest timeframe so stale bars
// never linger past their candle.
type CachingProvider struct {
	cfg   *config.Config
	inner repository.CandleProvider
	cache pkgcache.Service
}

func NewCachingProvider(cfg *config.Config, inner repository.CandleProvider, cache pkgcache.Service) *CachingProvider {
	return &CachingProvider{cfg: cfg, inner: inner, cache: cache}
}

var _ repository.CandleProvider = (*CachingProvider)(nil)

func (p *CachingProvider) GetCandles(ctx context.Context, symbol string, tf repository.Timeframe, count int) ([]models.Candle, error) {
	key := pkgcache.GenerateKeyWithParams(keyPrefix, symbol, string(tf), count)

	// Cache faults degrade to the inner provider.
	var cached []models.Candle
	if err := p.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	candles, err := p.inner.GetCandles(ctx, symbol, tf, count)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, candles, p.cfg.Cache.CandleTTL); err != nil {
		return candles, nil // serve the fetch even if caching failed
	}
	return candles, nil
}

// Invalidate drops all cached windows for a symbol.
func (p *CachingProvider) Invalidate(ctx context.Context, symbol string) error {
	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, symbol)
	return p.cache.DeleteByPattern(ctx, pattern)
}
