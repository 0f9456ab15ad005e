package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

// failingStore simulates an unreachable cache.
type failingStore struct {
	getErr, setErr error
	data           map[string][]byte
	sets           int
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if d, ok := s.data[key]; ok {
		return d, nil
	}
	return nil, ErrCacheMiss
}

func (s *failingStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[key] = data
	return nil
}

func (s *failingStore) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *failingStore) DeletePrefix(ctx context.Context, prefix string) error {
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
		}
	}
	return nil
}
func (s *failingStore) Available() bool { return true }
func (s *failingStore) Close() error    { return nil }

func newRedisAccessor(t *testing.T) (*Accessor, *miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client)
	return NewAccessor(store, Options{Name: "test"}), mr, store
}

func TestReadThroughMissThenHit(t *testing.T) {
	a, mr, _ := newRedisAccessor(t)
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context) ([]item, error) {
		calls++
		return []item{{Name: "site"}}, nil
	}

	got, err := ReadThrough(ctx, a, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "site"}}, got)
	assert.True(t, mr.Exists("k"))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	got, err = ReadThrough(ctx, a, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "site"}}, got)
	assert.Equal(t, 1, calls)
}

func TestReadThroughCorruptEntryRecomputes(t *testing.T) {
	a, mr, _ := newRedisAccessor(t)
	require.NoError(t, mr.Set("k", "{not json"))

	got, err := ReadThrough(context.Background(), a, "k", time.Minute, func(ctx context.Context) (item, error) {
		return item{Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)

	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"fresh"}`, v)
}

func TestReadThroughCacheUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	a := NewAccessor(NewRedisStore(client), Options{})

	got, err := ReadThrough(context.Background(), a, "k", time.Minute, func(ctx context.Context) (item, error) {
		return item{Name: "db"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "db", got.Name)
}

func TestReadThroughClosedStoreBypasses(t *testing.T) {
	a, _, store := newRedisAccessor(t)
	require.NoError(t, store.Close())
	assert.False(t, a.Available())

	got, err := ReadThrough(context.Background(), a, "k", time.Minute, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestReadThroughNilAccessor(t *testing.T) {
	got, err := ReadThrough(context.Background(), (*Accessor)(nil), "k", time.Minute, func(ctx context.Context) (string, error) {
		return "v", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	var a *Accessor
	a.Invalidate(context.Background(), "k")
}

func TestReadThroughGetAndSetFailuresAreSwallowed(t *testing.T) {
	store := &failingStore{getErr: errors.New("conn refused"), setErr: errors.New("conn refused")}
	var results []string
	a := NewAccessor(store, Options{BreakerMaxFailures: 100, OnLookup: func(r string) { results = append(results, r) }})

	got, err := ReadThrough(context.Background(), a, "k", time.Minute, func(ctx context.Context) (item, error) {
		return item{Name: "db"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "db", got.Name)
	assert.Equal(t, 1, store.sets)
	assert.Equal(t, []string{ResultError}, results)
}

func TestReadThroughComputeErrorPropagates(t *testing.T) {
	store := &failingStore{}
	a := NewAccessor(store, Options{})
	boom := errors.New("db down")

	_, err := ReadThrough(context.Background(), a, "k", time.Minute, func(ctx context.Context) (item, error) {
		return item{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.sets)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	store := &failingStore{getErr: errors.New("timeout"), setErr: errors.New("timeout")}
	a := NewAccessor(store, Options{BreakerMaxFailures: 2, BreakerTimeout: time.Hour})
	ctx := context.Background()
	compute := func(ctx context.Context) (int, error) { return 1, nil }

	for i := 0; i < 2; i++ {
		_, err := ReadThrough(ctx, a, "k", time.Minute, compute)
		require.NoError(t, err)
	}
	assert.False(t, a.Available())

	var results []string
	a.onLookup = func(r string) { results = append(results, r) }
	got, err := ReadThrough(ctx, a, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, []string{ResultBypass}, results)
}

func TestReadThroughCoalescesConcurrentMisses(t *testing.T) {
	a, _, _ := newRedisAccessor(t)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ReadThrough(context.Background(), a, "hot", time.Minute, func(ctx context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 7, got)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(10))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestReadThroughCallerCancelDoesNotFailSharedLookup(t *testing.T) {
	a, _, _ := newRedisAccessor(t)
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	compute := func(ctx context.Context) (int, error) {
		started <- struct{}{}
		<-release
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 7, nil
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := ReadThrough(first, a, "hot", time.Minute, compute)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := ReadThrough(context.Background(), a, "hot", time.Minute, compute)
		second <- result{v, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 7, got.v)
}

func TestInvalidateWhileBreakerOpen(t *testing.T) {
	old, _ := json.Marshal("old")
	store := &failingStore{data: map[string][]byte{"k": old, "p:1": old}}
	a := NewAccessor(store, Options{BreakerMaxFailures: 1, BreakerTimeout: 50 * time.Millisecond})
	ctx := context.Background()

	durable := "old"
	compute := func(ctx context.Context) (string, error) { return durable, nil }

	store.getErr = errors.New("timeout")
	_, err := ReadThrough(ctx, a, "k", time.Minute, compute)
	require.NoError(t, err)
	require.False(t, a.Available())

	// Cache recovers before the breaker closes; a write lands meanwhile.
	store.getErr = nil
	durable = "new"
	a.Invalidate(ctx, "k")
	a.InvalidatePrefix(ctx, "p:")
	assert.NotContains(t, store.data, "k")
	assert.NotContains(t, store.data, "p:1")

	time.Sleep(100 * time.Millisecond)
	got, err := ReadThrough(ctx, a, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, "new", got)
	assert.True(t, a.Available())
}

func TestInvalidate(t *testing.T) {
	a, mr, _ := newRedisAccessor(t)
	ctx := context.Background()
	keys := Keys{Prefix: "p"}

	require.NoError(t, mr.Set(keys.Websites("o"), "[]"))
	require.NoError(t, mr.Set(keys.Snapshots("o", "w", 10), "[]"))
	require.NoError(t, mr.Set(keys.Snapshots("o", "w", 20), "[]"))
	require.NoError(t, mr.Set(keys.Snapshots("o", "w2", 10), "[]"))

	a.Invalidate(ctx, keys.Websites("o"))
	assert.False(t, mr.Exists(keys.Websites("o")))

	a.InvalidatePrefix(ctx, keys.SnapshotsPrefix("o", "w"))
	assert.False(t, mr.Exists(keys.Snapshots("o", "w", 10)))
	assert.False(t, mr.Exists(keys.Snapshots("o", "w", 20)))
	assert.True(t, mr.Exists(keys.Snapshots("o", "w2", 10)))
}

func TestKeys(t *testing.T) {
	k := Keys{Prefix: "a11y"}
	assert.Equal(t, "a11y:websites:o1", k.Websites("o1"))
	assert.Equal(t, "a11y:snapshots:o1:w1:20", k.Snapshots("o1", "w1", 20))
	assert.Equal(t, "a11y:results:o1:w1", k.Results("o1", "w1"))
}
