package goldprice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"debtbook/utils"
)

// CachedSource добавляет к источнику кеш с TTL. При сбое источника
// отдается последняя известная котировка.
type CachedSource struct {
	source Source
	cache  Cache
	ttl    time.Duration
	now    func() time.Time

	// запросы без force к источнику не дублируются
	mu sync.Mutex
}

// NewCachedSource создает новый экземпляр CachedSource
func NewCachedSource(source Source, cache Cache, ttl time.Duration) *CachedSource {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &CachedSource{source: source, cache: cache, ttl: ttl, now: time.Now}
}

// WithClock подменяет источник времени
func (s *CachedSource) WithClock(now func() time.Time) *CachedSource {
	s.now = now
	return s
}

// Current возвращает свежую котировку из кеша или запрашивает источник
func (s *CachedSource) Current(ctx context.Context, force bool) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.cache.Get(ctx)
	if err != nil {
		utils.LogError("Ошибка чтения кеша цены золота: %v", err)
		cached = nil
	}

	if !force && cached != nil && s.now().Sub(cached.FetchedAt) < s.ttl {
		utils.LogDebug("Цена золота из кеша от %s", cached.FetchedAt.Format(time.RFC3339))
		q := *cached
		q.IsFromCache = true
		return q, nil
	}

	quote, err := s.source.Current(ctx, force)
	if err != nil {
		if cached != nil {
			utils.LogError("Цена золота взята из кеша после ошибки источника: %v", err)
			q := *cached
			q.IsFromCache = true
			return q, nil
		}
		if errors.Is(err, ErrPriceUnavailable) {
			return Quote{}, err
		}
		return Quote{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	quote.IsFromCache = false
	if err := s.cache.Set(ctx, quote); err != nil {
		utils.LogError("Ошибка записи кеша цены золота: %v", err)
	}
	return quote, nil
}
