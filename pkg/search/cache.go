package search

import (
	"sync"
	"time"
)

// maxCacheEntries ограничивает размер кэша результатов.
const maxCacheEntries = 512

type cacheEntry struct {
	resp    Response
	expires time.Time
}

// resultCache: короткоживущий кэш ответов Search по ключу
// "нормализованный запрос|лимит".
type resultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *resultCache) enabled() bool {
	return c != nil && c.ttl > 0
}

// get возвращает копию ответа, если он не устарел.
func (c *resultCache) get(key string) (Response, bool) {
	if !c.enabled() {
		return Response{}, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expires) {
		return Response{}, false
	}

	resp := entry.resp
	resp.Results = append([]Result(nil), entry.resp.Results...)
	return resp, true
}

// put сохраняет копию ответа.
func (c *resultCache) put(key string, resp Response) {
	if !c.enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.entries) >= maxCacheEntries {
		for k, e := range c.entries {
			if !now.Before(e.expires) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= maxCacheEntries {
			c.entries = make(map[string]cacheEntry)
		}
	}

	resp.Results = append([]Result(nil), resp.Results...)
	c.entries[key] = cacheEntry{resp: resp, expires: now.Add(c.ttl)}
}

// size возвращает количество записей (включая устаревшие).
func (c *resultCache) size() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
