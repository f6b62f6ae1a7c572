// Package cache is the keyed read-through cache sitting in front of the
// remote store. Entries are keyed by collection plus query shape and dropped
// collection-wide (optionally per record) after writes.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/observability"
)

type entry struct {
	value      any
	collection string
	expires    time.Time
}

// Cache is a TTL cache with per-collection tuning. Write-busy collections get
// an adaptively shortened TTL so stale pages disappear faster.
type Cache struct {
	mu              sync.RWMutex
	entries         map[string]entry
	ttls            map[string]time.Duration
	defaultTTL      time.Duration
	lastInvalidated map[string]time.Time
	logger          *zap.Logger

	// Now is swappable in tests.
	Now func() time.Time
}

// New builds a Cache. ttls overrides the default TTL per collection.
func New(defaultTTL time.Duration, ttls map[string]time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Second
	}
	if ttls == nil {
		ttls = map[string]time.Duration{}
	}
	return &Cache{
		entries:         make(map[string]entry),
		ttls:            ttls,
		defaultTTL:      defaultTTL,
		lastInvalidated: make(map[string]time.Time),
		logger:          logger,
		Now:             time.Now,
	}
}

// TTL returns the effective time-to-live for a collection. A collection
// invalidated within its base window runs at half TTL until writes settle.
func (c *Cache) TTL(collection string) time.Duration {
	base, ok := c.ttls[collection]
	if !ok {
		base = c.defaultTTL
	}
	c.mu.RLock()
	last := c.lastInvalidated[collection]
	c.mu.RUnlock()
	if !last.IsZero() && c.Now().Sub(last) < base {
		return base / 2
	}
	return base
}

// QueryShape derives a stable cache key fragment from list options.
func QueryShape(opts models.ListOptions) string {
	var b strings.Builder
	keys := make([]string, 0, len(opts.Filter))
	for k := range opts.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := json.Marshal(opts.Filter[k])
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(v)
		b.WriteByte('&')
	}
	v, _ := json.Marshal(struct {
		SortBy   string
		SortDesc bool
		Offset   int64
		Limit    int64
		View     models.View
	}{opts.SortBy, opts.SortDesc, opts.Offset, opts.Limit, opts.View})
	b.Write(v)
	return b.String()
}

// RecordShape is the cache key fragment for a single-record read.
func RecordShape(id string) string {
	return "id:" + id
}

// Lookup returns the cached value for (collection, shape) when fresh.
func (c *Cache) Lookup(collection, shape string) (any, bool) {
	key := collection + "|" + shape
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.Now().After(e.expires) {
		observability.CacheMisses.WithLabelValues(collection).Inc()
		return nil, false
	}
	observability.CacheHits.WithLabelValues(collection).Inc()
	return e.value, true
}

// Put stores a loaded value under (collection, shape).
func (c *Cache) Put(collection, shape string, value any) {
	key := collection + "|" + shape
	ttl := c.TTL(collection)
	c.mu.Lock()
	c.entries[key] = entry{
		value:      value,
		collection: collection,
		expires:    c.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops cached entries for a collection after a write. With
// recordIDs it drops the record-scoped entries plus every list-shaped entry
// (list pages may contain the record); without, the whole collection goes.
func (c *Cache) Invalidate(collection string, recordIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastInvalidated[collection] = c.Now()

	if len(recordIDs) == 0 {
		for key, e := range c.entries {
			if e.collection == collection {
				delete(c.entries, key)
			}
		}
		return
	}

	scoped := make(map[string]struct{}, len(recordIDs))
	for _, id := range recordIDs {
		scoped[collection+"|"+RecordShape(id)] = struct{}{}
	}
	for key, e := range c.entries {
		if e.collection != collection {
			continue
		}
		if _, isRecord := scoped[key]; isRecord || !strings.Contains(key, "|id:") {
			delete(c.entries, key)
		}
	}
}

// GetOrLoad is the typed read-through helper: serve fresh cache or call load
// and remember the result.
func GetOrLoad[T any](ctx context.Context, c *Cache, collection, shape string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Lookup(collection, shape); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	loaded, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Put(collection, shape, loaded)
	return loaded, nil
}
