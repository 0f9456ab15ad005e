package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key patterns:
// presence:org:{org_id}:online                  SET<member_id>  - online members
// presence:org:{org_id}:member:{member_id}:conns STRING<int>    - open connections
// presence:member:{member_id}:last_seen          STRING<unix ms> - last disconnect

func onlineKey(organizationID string) string {
	return fmt.Sprintf("presence:org:%s:online", organizationID)
}

func connsKey(organizationID, memberID string) string {
	return fmt.Sprintf("presence:org:%s:member:%s:conns", organizationID, memberID)
}

func lastSeenKey(memberID string) string {
	return fmt.Sprintf("presence:member:%s:last_seen", memberID)
}

// connectScript increments the counter and adds the member to the online set
// on the 0 -> 1 transition. A counter found below zero is reset to one.
var connectScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n < 1 then
	redis.call('SET', KEYS[1], 1)
	n = 1
end
if n == 1 then
	redis.call('SADD', KEYS[2], ARGV[1])
end
return n
`)

// disconnectScript decrements the counter and, once it reaches zero or below,
// deletes it and removes the member from the online set.
var disconnectScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
	redis.call('DEL', KEYS[1])
	redis.call('SREM', KEYS[2], ARGV[1])
	return 1
end
return 0
`)

// redisStore implements PresenceStore using Redis.
type redisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed presence store on a shared client.
// The client is owned by the caller.
func NewRedisStore(client redis.UniversalClient) PresenceStore {
	return &redisStore{client: client}
}

func (s *redisStore) RecordConnect(ctx context.Context, organizationID, memberID string) (bool, error) {
	n, err := connectScript.Run(ctx, s.client,
		[]string{connsKey(organizationID, memberID), onlineKey(organizationID)},
		memberID,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("record connect: %w", err)
	}
	return n == 1, nil
}

func (s *redisStore) RecordDisconnect(ctx context.Context, organizationID, memberID string) (bool, error) {
	last, err := disconnectScript.Run(ctx, s.client,
		[]string{connsKey(organizationID, memberID), onlineKey(organizationID)},
		memberID,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("record disconnect: %w", err)
	}
	return last == 1, nil
}

func (s *redisStore) ListOnline(ctx context.Context, organizationID string) ([]string, error) {
	members, err := s.client.SMembers(ctx, onlineKey(organizationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list online: %w", err)
	}
	sort.Strings(members)
	return members, nil
}

func (s *redisStore) TouchLastSeen(ctx context.Context, memberID string, at time.Time) error {
	return s.client.Set(ctx, lastSeenKey(memberID), strconv.FormatInt(at.UnixMilli(), 10), 0).Err()
}

func (s *redisStore) LastSeen(ctx context.Context, memberID string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, lastSeenKey(memberID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last seen: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}

// Close is a no-op; the shared client is closed by its owner.
func (s *redisStore) Close() error {
	return nil
}
