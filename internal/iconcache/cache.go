package iconcache

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"verge-groups/internal/domain"
	"verge-groups/internal/interfaces"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

const defaultFetchTimeout = 30 * time.Second

// Entry is the resolution state of one icon key.
type Entry struct {
	Status   Status
	Resource string
}

// Cache resolves remote group icons to renderable locators. Every key is
// fetched at most once per process; concurrent resolutions of a key share the
// single in-flight fetch.
type Cache struct {
	fetcher interfaces.IconFetcher
	locator interfaces.Locator
	metrics domain.MetricsCollector
	logger  *zap.Logger
	timeout time.Duration

	flights singleflight.Group
	mu      sync.RWMutex
	entries map[string]Entry
}

func New(
	fetcher interfaces.IconFetcher,
	locator interfaces.Locator,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		fetcher: fetcher,
		locator: locator,
		metrics: metrics,
		logger:  logger.With(zap.String("component", "iconcache")),
		timeout: defaultFetchTimeout,
		entries: make(map[string]Entry),
	}
}

// Key builds the cache key and on-disk file name for a group icon.
func Key(group domain.GroupName, iconURL string) string {
	name := strings.ReplaceAll(string(group), " ", "")
	src := strings.TrimSpace(iconURL)
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return name + "-" + src[strings.LastIndex(src, "/")+1:]
}

// IsRemote reports whether iconURL names an http(s) resource.
func IsRemote(iconURL string) bool {
	src := strings.TrimSpace(iconURL)
	if src == "" {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolve returns the renderable locator for the group's icon, or "" when the
// group has no remote icon or the fetch failed.
func (c *Cache) Resolve(ctx context.Context, group domain.GroupName, iconURL string) string {
	if !IsRemote(iconURL) {
		return ""
	}
	key := Key(group, iconURL)

	if entry, ok := c.settled(key); ok {
		return entry.Resource
	}

	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = Entry{Status: StatusPending}
	}
	c.mu.Unlock()

	// The fetch outlives the caller that started it; others may be waiting on it.
	fetchCtx := context.WithoutCancel(ctx)
	v, _, _ := c.flights.Do(key, func() (interface{}, error) {
		if entry, ok := c.settled(key); ok {
			return entry.Resource, nil
		}
		return c.fetch(fetchCtx, key, strings.TrimSpace(iconURL)), nil
	})
	return v.(string)
}

// Peek returns the current entry without starting a fetch.
func (c *Cache) Peek(group domain.GroupName, iconURL string) (Entry, bool) {
	if !IsRemote(iconURL) {
		return Entry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[Key(group, iconURL)]
	return entry, ok
}

func (c *Cache) settled(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || entry.Status == StatusPending {
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) fetch(ctx context.Context, key, iconURL string) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	path, err := c.fetcher.FetchIcon(ctx, iconURL, key)
	if err != nil {
		c.logger.Warn("icon fetch failed",
			zap.String("key", key),
			zap.String("url", iconURL),
			zap.Error(err))
		c.store(key, Entry{Status: StatusFailed})
		c.metrics.RecordIconFetch(string(StatusFailed))
		return ""
	}

	resource := c.locator.Locate(path)
	c.store(key, Entry{Status: StatusReady, Resource: resource})
	c.metrics.RecordIconFetch(string(StatusReady))
	c.logger.Debug("icon cached", zap.String("key", key), zap.String("path", path))
	return resource
}

func (c *Cache) store(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}
