package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

// Lookup outcomes reported to Options.OnLookup.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultCorrupt = "corrupt"
	ResultError   = "error"
	ResultBypass  = "bypass"
)

type Options struct {
	Name               string
	OpTimeout          time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
	OnLookup           func(result string)
}

// Accessor implements cache-aside reads. Cache failures never fail a read;
// the compute function is always the fallback.
type Accessor struct {
	store     Store
	breaker   *gobreaker.CircuitBreaker[[]byte]
	sf        singleflight.Group
	opTimeout time.Duration
	onLookup  func(result string)
}

// NewAccessor wraps store. A nil store disables caching.
func NewAccessor(store Store, opts Options) *Accessor {
	if opts.Name == "" {
		opts.Name = "cache"
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	maxFailures := opts.BreakerMaxFailures

	a := &Accessor{
		store:     store,
		opTimeout: opts.OpTimeout,
		onLookup:  opts.OnLookup,
	}
	a.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l := log.L()
			l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cache breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
	})
	return a
}

// Available reports whether reads should consult the cache.
func (a *Accessor) Available() bool {
	if !a.storeAvailable() {
		return false
	}
	return a.breaker.State() != gobreaker.StateOpen
}

// ReadThrough returns the cached value for key, or computes it, stores it
// with ttl and returns it. Concurrent misses on the same key share one compute.
func ReadThrough[T any](ctx context.Context, a *Accessor, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	if !a.Available() {
		a.record(ResultBypass)
		return compute(ctx)
	}

	// The shared lookup outlives any single caller; each caller still
	// gives up when its own context ends.
	ch := a.sf.DoChan(key, func() (interface{}, error) {
		return readThrough(context.WithoutCancel(ctx), a, key, ttl, compute)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func readThrough[T any](ctx context.Context, a *Accessor, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	l := log.Ctx(ctx)

	data, err := a.get(ctx, key)
	switch {
	case err == nil:
		var cached T
		jerr := json.Unmarshal(data, &cached)
		if jerr == nil {
			a.record(ResultHit)
			return cached, nil
		}
		a.record(ResultCorrupt)
		l.Warn().Err(jerr).Str("key", key).Msg("corrupt cache entry, recomputing")
	case errors.Is(err, ErrCacheMiss):
		a.record(ResultMiss)
	default:
		a.record(ResultError)
		l.Warn().Err(err).Str("key", key).Msg("cache get error")
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		l.Warn().Err(err).Str("key", key).Msg("failed to marshal cache value")
		return value, nil
	}
	if err := a.set(ctx, key, payload, ttl); err != nil {
		l.Warn().Err(err).Str("key", key).Msg("cache set error")
	}
	return value, nil
}

// Invalidate deletes keys. Deletes bypass the breaker so a write made while
// it is open still evicts the stale entry. Failures are logged and swallowed.
func (a *Accessor) Invalidate(ctx context.Context, keys ...string) {
	if !a.storeAvailable() || len(keys) == 0 {
		return
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	if err := a.store.Delete(ctx, keys...); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate error")
	}
}

// InvalidatePrefix deletes every key starting with prefix.
func (a *Accessor) InvalidatePrefix(ctx context.Context, prefix string) {
	if !a.storeAvailable() {
		return
	}
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	if err := a.store.DeletePrefix(ctx, prefix); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("prefix", prefix).Msg("cache invalidate error")
	}
}

func (a *Accessor) storeAvailable() bool {
	return a != nil && a.store != nil && a.store.Available()
}

func (a *Accessor) get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	return a.breaker.Execute(func() ([]byte, error) {
		return a.store.Get(ctx, key)
	})
}

func (a *Accessor) set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return a.exec(ctx, func(ctx context.Context) error {
		return a.store.Set(ctx, key, data, ttl)
	})
}

func (a *Accessor) exec(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := a.opContext(ctx)
	defer cancel()
	_, err := a.breaker.Execute(func() ([]byte, error) {
		return nil, fn(ctx)
	})
	return err
}

func (a *Accessor) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opTimeout > 0 {
		return context.WithTimeout(ctx, a.opTimeout)
	}
	return context.WithCancel(ctx)
}

func (a *Accessor) record(result string) {
	if a != nil && a.onLookup != nil {
		a.onLookup(result)
	}
}
