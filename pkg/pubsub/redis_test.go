package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPubSubDeliversEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ps := NewRedisPubSubFromClient(client)
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := ps.Subscribe(ctx, "fanout")
	require.NoError(t, err)

	ev, err := NewEvent("presence:online", "instance-a", "org:o1", map[string]string{"memberId": "m1"})
	require.NoError(t, err)
	require.NoError(t, ps.Publish(ctx, "fanout", ev))

	select {
	case got := <-ch:
		assert.Equal(t, "presence:online", got.Type)
		assert.Equal(t, "instance-a", got.Origin)
		assert.Equal(t, "org:o1", got.Room)
		var payload map[string]string
		require.NoError(t, got.UnmarshalPayload(&payload))
		assert.Equal(t, "m1", payload["memberId"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisPubSubUnsubscribeClosesChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ps := NewRedisPubSubFromClient(client)
	ctx := context.Background()

	ch, err := ps.Subscribe(ctx, "fanout")
	require.NoError(t, err)
	require.NoError(t, ps.Unsubscribe(ctx, "fanout"))

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
	require.NoError(t, ps.Close())
}
