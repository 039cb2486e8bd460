package currency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL = time.Hour
	// DefaultRetryInterval - как долго после неудачного запроса отдаётся деградированная таблица.
	DefaultRetryInterval = time.Minute
)

// Cache serves rate tables with a TTL. Fetch failures never reach the caller:
// they degrade to the last good table, then to the static fallback.
type Cache struct {
	provider Provider
	store    Store
	ttl      time.Duration
	retry    time.Duration
	required []string
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group

	mu        sync.Mutex
	nextRetry map[string]time.Time
}

type CacheOption func(*Cache)

func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithRetryInterval sets how long a failed fetch suppresses further provider calls from GetRates.
func WithRetryInterval(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.retry = d
		}
	}
}

// WithRequiredCodes overrides the codes a fetched table must contain to be accepted.
func WithRequiredCodes(codes ...string) CacheOption {
	return func(c *Cache) { c.required = codes }
}

func NewCache(provider Provider, store Store, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		provider: provider,
		store:    store,
		ttl:       ttl,
		retry:     DefaultRetryInterval,
		required:  Supported(),
		logger:    logger,
		now:       time.Now,
		nextRetry: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRates returns a table quoted per unit of base. It never fails.
func (c *Cache) GetRates(ctx context.Context, base string) RateTable {
	base = Normalize(base)
	if cached, ok := c.load(ctx, base); ok && c.now().Sub(cached.FetchedAt) < c.ttl {
		return cached
	}
	if c.backingOff(base) {
		return c.degraded(ctx, base)
	}
	table, _ := c.fetch(ctx, base)
	return table
}

// Refresh forces a fetch regardless of TTL and of a pending retry delay. The returned table is always usable;
// the error reports why the live fetch was not applied.
func (c *Cache) Refresh(ctx context.Context, base string) (RateTable, error) {
	return c.fetch(ctx, Normalize(base))
}

func (c *Cache) fetch(ctx context.Context, base string) (RateTable, error) {
	type result struct {
		table RateTable
		err   error
	}
	v, _, _ := c.group.Do(base, func() (interface{}, error) {
		table, err := c.provider.Fetch(ctx, base)
		if err == nil && !table.Covers(c.required) {
			err = fmt.Errorf("%w: table for %s is missing required codes", ErrRatesUnavailable, base)
		}
		if err != nil {
			retryAt := c.now().Add(c.retry)
			c.mu.Lock()
			c.nextRetry[base] = retryAt
			c.mu.Unlock()
			c.logger.Warn("exchange rate fetch failed, degrading",
				slog.String("base", base), slog.Time("retry_at", retryAt), slog.Any("error", err))
			return result{table: c.degraded(ctx, base), err: err}, nil
		}
		c.mu.Lock()
		delete(c.nextRetry, base)
		c.mu.Unlock()
		if table.FetchedAt.IsZero() {
			table.FetchedAt = c.now()
		}
		if saveErr := c.store.Save(ctx, table); saveErr != nil {
			c.logger.Error("failed to store exchange rates", slog.String("base", base), slog.Any("error", saveErr))
		}
		c.logger.Info("exchange rates refreshed", slog.String("base", base), slog.Int("codes", len(table.Rates)))
		return result{table: table}, nil
	})
	r := v.(result)
	return r.table, r.err
}

func (c *Cache) backingOff(base string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.nextRetry[base]
	return ok && c.now().Before(until)
}

func (c *Cache) degraded(ctx context.Context, base string) RateTable {
	if last, ok := c.load(ctx, base); ok {
		return last
	}
	return FallbackTable(base)
}

func (c *Cache) load(ctx context.Context, base string) (RateTable, bool) {
	t, ok, err := c.store.Load(ctx, base)
	if err != nil {
		c.logger.Error("failed to load cached exchange rates", slog.String("base", base), slog.Any("error", err))
		return RateTable{}, false
	}
	return t, ok
}
