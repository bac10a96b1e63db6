package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	compatibilityCacheName = "compatibility"
	feedCacheName          = "feed"

	DefaultCompatibilityTTL = time.Hour
	DefaultFeedTTL          = 5 * time.Minute
)

// PairKey builds the key for an unordered user pair. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("compatibility:%d:%d", a, b)
}

// CompatibilityCache memoizes pairwise ranking scores.
//
// Two requests that miss on the same pair at the same time both compute and
// both write; the score is a pure function of the two profiles, so the second
// write only refreshes the expiry. Lookups are not serialised per key.
type CompatibilityCache struct {
	backend Backend
	ttl     time.Duration
	log     logrus.FieldLogger
}

func NewCompatibilityCache(backend Backend, ttl time.Duration, log logrus.FieldLogger) *CompatibilityCache {
	if backend == nil {
		backend = NoopBackend{}
	}
	if ttl <= 0 {
		ttl = DefaultCompatibilityTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CompatibilityCache{backend: backend, ttl: ttl, log: log}
}

// GetOrCompute returns the cached score for the pair, or calls compute and
// stores its result. Backend failures are logged and the score is computed directly.
func (c *CompatibilityCache) GetOrCompute(ctx context.Context, userA, userB int64, compute func() float64) float64 {
	key := PairKey(userA, userB)

	raw, hit, err := c.backend.Get(ctx, key)
	switch {
	case err != nil:
		recordLookup(compatibilityCacheName, resultError)
		c.log.WithError(err).WithField("key", key).Warn("compatibility cache read failed, computing directly")
	case hit:
		if score, perr := strconv.ParseFloat(string(raw), 64); perr == nil {
			recordLookup(compatibilityCacheName, resultHit)
			return score
		}
		_ = c.backend.Del(ctx, key)
		recordLookup(compatibilityCacheName, resultMiss)
	default:
		recordLookup(compatibilityCacheName, resultMiss)
	}

	score := compute()

	value := strconv.FormatFloat(score, 'f', -1, 64)
	if err := c.backend.Set(ctx, key, []byte(value), c.ttl); err != nil {
		recordWriteError(compatibilityCacheName)
		c.log.WithError(err).WithField("key", key).Warn("compatibility cache write failed")
	}
	return score
}

// FeedCache memoizes a user's ranked swipe feed. Entries are only ever
// invalidated by expiry: new swipes or profile edits do not evict them.
type FeedCache struct {
	backend Backend
	ttl     time.Duration
	log     logrus.FieldLogger
}

func NewFeedCache(backend Backend, ttl time.Duration, log logrus.FieldLogger) *FeedCache {
	if backend == nil {
		backend = NoopBackend{}
	}
	if ttl <= 0 {
		ttl = DefaultFeedTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FeedCache{backend: backend, ttl: ttl, log: log}
}

func feedKey(userID int64) string {
	return fmt.Sprintf("swipe_feed:%d", userID)
}

// Get decodes the cached feed for userID into dst and reports whether it was found.
func (f *FeedCache) Get(ctx context.Context, userID int64, dst any) bool {
	hit, err := getJSON(ctx, f.backend, feedKey(userID), dst)
	if err != nil {
		recordLookup(feedCacheName, resultError)
		f.log.WithError(err).WithField("user_id", userID).Warn("feed cache read failed")
		return false
	}
	if hit {
		recordLookup(feedCacheName, resultHit)
	} else {
		recordLookup(feedCacheName, resultMiss)
	}
	return hit
}

// Set stores the feed for userID. Failures are logged, never returned.
func (f *FeedCache) Set(ctx context.Context, userID int64, feed any) {
	if err := setJSON(ctx, f.backend, feedKey(userID), feed, f.ttl); err != nil {
		recordWriteError(feedCacheName)
		f.log.WithError(err).WithField("user_id", userID).Warn("feed cache write failed")
	}
}
