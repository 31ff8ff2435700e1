package phonelines

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"crm-telephony/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "phoneline:"

// CachedRepository is a Redis read-through cache in front of another Repository.
//
// Cache failures never fail a lookup: on any Redis error the call falls through
// to the underlying repository. Only hits are cached; unknown numbers always
// reach the source so newly provisioned lines are visible immediately.
// Concurrent misses for the same number share one source lookup. The shared
// lookup is detached from any single caller: each caller stops waiting when its
// own ctx ends, and the lookup itself is bounded by LookupTimeout.
type CachedRepository struct {
	next  Repository
	rdb   redis.UniversalClient
	ttl   time.Duration
	group singleflight.Group

	// LookupTimeout bounds the shared source lookup. Zero uses defaultLookupTimeout.
	LookupTimeout time.Duration
}

const defaultLookupTimeout = 3 * time.Second

func NewCachedRepository(next Repository, rdb redis.UniversalClient, ttl time.Duration) *CachedRepository {
	return &CachedRepository{next: next, rdb: rdb, ttl: ttl}
}

func (r *CachedRepository) GetByNumber(ctx context.Context, number string) (PhoneLine, error) {
	number = NormalizeNumber(number)
	key := cacheKeyPrefix + number
	log := logger.From(ctx)

	raw, err := r.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var p PhoneLine
		if jerr := json.Unmarshal([]byte(raw), &p); jerr == nil {
			return p, nil
		}
		log.Warn("phone line cache entry corrupt", "key", key)
	case !errors.Is(err, redis.Nil):
		log.Warn("phone line cache read failed", "key", key, "err", err)
	}

	p, err := r.lookup(ctx, number)
	if err != nil {
		return PhoneLine{}, err
	}

	if b, jerr := json.Marshal(p); jerr == nil {
		if serr := r.rdb.Set(ctx, key, string(b), r.ttl).Err(); serr != nil {
			log.Warn("phone line cache write failed", "key", key, "err", serr)
		}
	}
	return p, nil
}

func (r *CachedRepository) lookup(ctx context.Context, number string) (PhoneLine, error) {
	timeout := r.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	ch := r.group.DoChan(number, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return r.next.GetByNumber(lctx, number)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return PhoneLine{}, res.Err
		}
		return res.Val.(PhoneLine), nil
	case <-ctx.Done():
		return PhoneLine{}, ctx.Err()
	}
}
