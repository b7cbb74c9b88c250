package featureflow

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/featureflow/featureflow-go/pkg/logger"
	"github.com/featureflow/featureflow-go/pkg/storage"
)

// cachePrefix versions the cache format. Bumping it orphans entries written
// by older formats instead of misinterpreting them.
const cachePrefix = "ff:go:v2"

// featureCache persists the last-known feature set per user and classifies
// entries as fresh or stale on read. Caching is best-effort: every storage
// or decode failure degrades to a miss and is never surfaced to callers.
type featureCache struct {
	store  storage.Storage
	apiKey string
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

type cacheEntry struct {
	Features  Features `json:"features"`
	Timestamp int64    `json:"timestamp"`
}

func newFeatureCache(store storage.Storage, apiKey string, ttl time.Duration, log *slog.Logger, now func() time.Time) *featureCache {
	return &featureCache{store: store, apiKey: apiKey, ttl: ttl, log: log, now: now}
}

func (c *featureCache) key(userID string) string {
	return cachePrefix + ":" + userID + ":" + c.apiKey
}

// load returns the cached feature set for userID and whether it is fresh.
// A nil map means no usable entry. A zero ttl disables the freshness
// shortcut: entries still load as stale fallback data.
func (c *featureCache) load(ctx context.Context, userID string) (Features, bool) {
	raw, err := c.store.Get(ctx, c.key(userID))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.log.Warn("failed to load features from cache",
				logger.Component("cache"), logger.UserID(userID), logger.Error(err))
		}
		return nil, false
	}

	features, savedAt, err := decodeCacheEntry([]byte(raw))
	if err != nil {
		c.log.Warn("discarding malformed cache entry",
			logger.Component("cache"), logger.UserID(userID), logger.Error(err))
		return nil, false
	}

	// Legacy entries carry no timestamp and must never be treated as fresh.
	if savedAt.IsZero() {
		return features, false
	}

	fresh := c.ttl > 0 && c.now().Sub(savedAt) < c.ttl
	return features, fresh
}

// save persists the feature set with the current timestamp. Failures are
// logged and swallowed; losing a cache write never fails the caller.
func (c *featureCache) save(ctx context.Context, userID string, features Features) {
	raw, err := json.Marshal(cacheEntry{
		Features:  features,
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		c.log.Warn("failed to encode cache entry",
			logger.Component("cache"), logger.UserID(userID), logger.Error(err))
		return
	}

	if err := c.store.Set(ctx, c.key(userID), string(raw)); err != nil {
		c.log.Warn("failed to save features to cache",
			logger.Component("cache"), logger.UserID(userID), logger.Error(err))
	}
}

// decodeCacheEntry parses the versioned {features, timestamp} format and
// falls back to the legacy bare feature map, reported with a zero time.
func decodeCacheEntry(raw []byte) (Features, time.Time, error) {
	var entry struct {
		Features  Features `json:"features"`
		Timestamp *int64   `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &entry); err == nil && entry.Features != nil && entry.Timestamp != nil {
		return entry.Features, time.UnixMilli(*entry.Timestamp), nil
	}

	var legacy Features
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, time.Time{}, errors.Join(ErrMalformedCache, err)
	}
	return legacy, time.Time{}, nil
}
