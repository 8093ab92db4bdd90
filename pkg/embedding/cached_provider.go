package embedding

import (
	"crypto/md5"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider memoizes another provider. The hash provider is cheap,
// but extraction and cleanup embed the same pattern text repeatedly and a
// real model swapped in behind Provider would not be cheap at all.
type CachedProvider struct {
	inner Provider
	cache *cache.Cache
}

func NewCachedProvider(inner Provider) *CachedProvider {
	// Entries expire after an hour; expired items are purged every 10 minutes.
	return &CachedProvider{
		inner: inner,
		cache: cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (p *CachedProvider) Generate(text string) ([]float32, error) {
	key := fmt.Sprintf("%x", md5.Sum([]byte(text)))
	if x, found := p.cache.Get(key); found {
		return x.([]float32), nil
	}

	vec, err := p.inner.Generate(text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, vec, cache.DefaultExpiration)
	return vec, nil
}
