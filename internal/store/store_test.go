package store

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory struct {
	name string
	new  func(t *testing.T) (PresenceStore, func(org, member string) int)
}

func factories() []storeFactory {
	return []storeFactory{
		{
			name: "memory",
			new: func(t *testing.T) (PresenceStore, func(org, member string) int) {
				s := NewMemoryStore().(*memoryStore)
				return s, s.connCount
			},
		},
		{
			name: "redis",
			new: func(t *testing.T) (PresenceStore, func(org, member string) int) {
				mr := miniredis.RunT(t)
				client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { client.Close() })
				count := func(org, member string) int {
					v, err := mr.Get(connsKey(org, member))
					if err != nil {
						return 0
					}
					n, _ := strconv.Atoi(v)
					return n
				}
				return NewRedisStore(client), count
			},
		},
	}
}

func TestPresenceTwoConnectionsScenario(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s, _ := f.new(t)
			defer s.Close()

			first, err := s.RecordConnect(ctx, "org-x", "M")
			require.NoError(t, err)
			assert.True(t, first)

			first, err = s.RecordConnect(ctx, "org-x", "M")
			require.NoError(t, err)
			assert.False(t, first)

			last, err := s.RecordDisconnect(ctx, "org-x", "M")
			require.NoError(t, err)
			assert.False(t, last)

			online, err := s.ListOnline(ctx, "org-x")
			require.NoError(t, err)
			assert.Equal(t, []string{"M"}, online)

			last, err = s.RecordDisconnect(ctx, "org-x", "M")
			require.NoError(t, err)
			assert.True(t, last)

			online, err = s.ListOnline(ctx, "org-x")
			require.NoError(t, err)
			assert.Empty(t, online)
		})
	}
}

func TestPresenceRandomSequencesKeepInvariant(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s, count := f.new(t)
			rng := rand.New(rand.NewSource(42))

			net := 0
			for step := 0; step < 300; step++ {
				if rng.Intn(2) == 0 {
					_, err := s.RecordConnect(ctx, "org", "m")
					require.NoError(t, err)
					net++
				} else {
					_, err := s.RecordDisconnect(ctx, "org", "m")
					require.NoError(t, err)
					if net > 0 {
						net--
					}
				}

				online, err := s.ListOnline(ctx, "org")
				require.NoError(t, err)
				assert.Equal(t, net > 0, len(online) == 1, "step %d", step)
				assert.GreaterOrEqual(t, count("org", "m"), 0, "step %d", step)
				assert.Equal(t, net, count("org", "m"), "step %d", step)
			}
		})
	}
}

func TestPresenceScopesAreIsolated(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s, _ := f.new(t)

			_, err := s.RecordConnect(ctx, "org-a", "m1")
			require.NoError(t, err)
			_, err = s.RecordConnect(ctx, "org-b", "m2")
			require.NoError(t, err)

			a, err := s.ListOnline(ctx, "org-a")
			require.NoError(t, err)
			assert.Equal(t, []string{"m1"}, a)

			b, err := s.ListOnline(ctx, "org-b")
			require.NoError(t, err)
			assert.Equal(t, []string{"m2"}, b)
		})
	}
}

func TestPresenceConcurrentConnects(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s, count := f.new(t)

			const n = 20
			var firsts int
			var mu sync.Mutex
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					first, err := s.RecordConnect(ctx, "org", "m")
					assert.NoError(t, err)
					if first {
						mu.Lock()
						firsts++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, firsts)
			assert.Equal(t, n, count("org", "m"))
		})
	}
}

func TestTouchLastSeen(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s, _ := f.new(t)

			_, ok, err := s.LastSeen(ctx, "m")
			require.NoError(t, err)
			assert.False(t, ok)

			at := time.UnixMilli(1_700_000_000_123)
			require.NoError(t, s.TouchLastSeen(ctx, "m", at))

			got, ok, err := s.LastSeen(ctx, "m")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.True(t, at.Equal(got))
		})
	}
}
