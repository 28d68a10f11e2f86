package services

import (
	"context"
	"fmt"
	"time"

	"finboard/internal/analytics"
	"finboard/internal/cache"
	"finboard/internal/core"
)

// AnalyticsService serves derived views of the ledger. Results are cached
// per ledger version, so any committed mutation makes them stale at once
// and the TTL only bounds how long unused versions linger.
type AnalyticsService struct {
	ledger *LedgerService
	now    func() time.Time
	// uncached services recompute on every call.
	uncached bool

	summaries  *cache.LRUCache[analytics.Summary]
	insights   *cache.LRUCache[[]string]
	months     *cache.LRUCache[[]analytics.MonthTotal]
	categories *cache.LRUCache[[]analytics.CategoryTotal]
}

func NewAnalyticsService(ledger *LedgerService, ttl time.Duration, manager *cache.Manager) *AnalyticsService {
	s := &AnalyticsService{
		ledger:     ledger,
		now:        time.Now,
		summaries:  cache.NewLRUCache[analytics.Summary](8, ttl),
		insights:   cache.NewLRUCache[[]string](8, ttl),
		months:     cache.NewLRUCache[[]analytics.MonthTotal](8, ttl),
		categories: cache.NewLRUCache[[]analytics.CategoryTotal](8, ttl),
	}
	if manager != nil {
		manager.Register(s.summaries)
		manager.Register(s.insights)
		manager.Register(s.months)
		manager.Register(s.categories)
	}
	return s
}

// NewUncachedAnalyticsService recomputes every view on each call. It is for
// processes that read a store another process writes, where the local
// ledger version never moves.
func NewUncachedAnalyticsService(ledger *LedgerService) *AnalyticsService {
	s := NewAnalyticsService(ledger, 0, nil)
	s.uncached = true
	return s
}

// cached returns the value for the current ledger version, computing it
// from the transaction list on a miss. Time-dependent views include the
// day in the key.
func cached[T any](ctx context.Context, s *AnalyticsService, c *cache.LRUCache[T], daily bool, compute func([]core.Transaction, time.Time) T) (T, error) {
	now := s.now()
	if s.uncached {
		txs, err := s.ledger.ListTransactions(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return compute(txs, now), nil
	}
	key := fmt.Sprintf("v%d", s.ledger.Version())
	if daily {
		key += "@" + now.UTC().Format("2006-01-02")
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	txs, err := s.ledger.ListTransactions(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	v := compute(txs, now)
	c.Set(key, v)
	return v, nil
}

func (s *AnalyticsService) Summary(ctx context.Context) (analytics.Summary, error) {
	return cached(ctx, s, s.summaries, true, analytics.Summarize)
}

func (s *AnalyticsService) Insights(ctx context.Context) ([]string, error) {
	return cached(ctx, s, s.insights, true, analytics.GenerateInsights)
}

func (s *AnalyticsService) Monthly(ctx context.Context) ([]analytics.MonthTotal, error) {
	return cached(ctx, s, s.months, false, func(txs []core.Transaction, _ time.Time) []analytics.MonthTotal {
		return analytics.GroupByMonth(txs)
	})
}

func (s *AnalyticsService) Categories(ctx context.Context) ([]analytics.CategoryTotal, error) {
	return cached(ctx, s, s.categories, false, func(txs []core.Transaction, _ time.Time) []analytics.CategoryTotal {
		return analytics.GroupByCategory(txs)
	})
}
