package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FetchCached returns the cached value under key or computes and stores it.
//
// The cache is best effort: read, decode and write failures are logged and
// the value is computed as if the key were absent. The boolean reports a hit.
func FetchCached[T any](ctx context.Context, cache Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, bool, error) {
	log := zerolog.Ctx(ctx)

	if cache != nil {
		raw, err := cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		case raw != nil:
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, true, nil
			}
			log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		}
	}

	v, err := compute(ctx)
	if err != nil {
		return v, false, err
	}

	if cache != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
			return v, false, nil
		}
		if err := cache.Set(ctx, key, raw, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}

	return v, false, nil
}

// CacheFingerprint identifies one generation of a family's derived data.
type CacheFingerprint struct {
	ManualRatesUpdatedAt *time.Time
	DataUpdatedAt        *time.Time
	Bucket               int64
}

// NewCacheFingerprint combines storage freshness with a coarse time bucket so
// entries also expire after at most one staleness interval.
func NewCacheFingerprint(f Freshness, now time.Time, staleness time.Duration) CacheFingerprint {
	if staleness <= 0 {
		staleness = DefaultCacheStaleness
	}

	return CacheFingerprint{
		ManualRatesUpdatedAt: f.ManualRatesUpdatedAt,
		DataUpdatedAt:        f.DataUpdatedAt,
		Bucket:               now.UnixNano() / int64(staleness),
	}
}

func (f CacheFingerprint) String() string {
	return "manual_rates:" + stamp(f.ManualRatesUpdatedAt) +
		":data:" + stamp(f.DataUpdatedAt) +
		":bucket:" + strconv.FormatInt(f.Bucket, 10)
}

func stamp(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return strconv.FormatInt(t.UnixMicro(), 10)
}

// FamilyCacheKey builds the cache key of a family-scoped view.
func FamilyCacheKey(familyID, view string, fp CacheFingerprint, parts ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "family:%s:%s", familyID, view)
	for _, p := range parts {
		b.WriteString(":")
		b.WriteString(p)
	}
	b.WriteString(":")
	b.WriteString(fp.String())
	return b.String()
}

// cacheKeys derives fingerprinted keys for family views.
type cacheKeys struct {
	entryRepo EntryRepository
	staleness time.Duration
	now       func() time.Time
}

func (k cacheKeys) key(ctx context.Context, familyID, view string, parts ...string) (string, error) {
	f, err := k.entryRepo.Freshness(ctx, familyID)
	if err != nil {
		return "", err
	}

	return FamilyCacheKey(familyID, view, NewCacheFingerprint(f, k.now(), k.staleness), parts...), nil
}
