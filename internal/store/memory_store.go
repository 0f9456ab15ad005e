package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryStore implements PresenceStore in process memory.
type memoryStore struct {
	mu       sync.Mutex
	conns    map[string]map[string]int // org -> member -> count
	online   map[string]map[string]struct{}
	lastSeen map[string]time.Time
}

// NewMemoryStore creates an in-memory presence store for single-instance
// deployments and tests.
func NewMemoryStore() PresenceStore {
	return &memoryStore{
		conns:    make(map[string]map[string]int),
		online:   make(map[string]map[string]struct{}),
		lastSeen: make(map[string]time.Time),
	}
}

func (s *memoryStore) RecordConnect(ctx context.Context, organizationID, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.conns[organizationID]
	if !ok {
		members = make(map[string]int)
		s.conns[organizationID] = members
	}
	n := members[memberID] + 1
	if n < 1 {
		n = 1
	}
	members[memberID] = n

	if n == 1 {
		set, ok := s.online[organizationID]
		if !ok {
			set = make(map[string]struct{})
			s.online[organizationID] = set
		}
		set[memberID] = struct{}{}
	}
	return n == 1, nil
}

func (s *memoryStore) RecordDisconnect(ctx context.Context, organizationID, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.conns[organizationID]
	n := members[memberID] - 1
	if n > 0 {
		members[memberID] = n
		return false, nil
	}

	if members != nil {
		delete(members, memberID)
		if len(members) == 0 {
			delete(s.conns, organizationID)
		}
	}
	if set, ok := s.online[organizationID]; ok {
		delete(set, memberID)
		if len(set) == 0 {
			delete(s.online, organizationID)
		}
	}
	return true, nil
}

func (s *memoryStore) ListOnline(ctx context.Context, organizationID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]string, 0, len(s.online[organizationID]))
	for id := range s.online[organizationID] {
		members = append(members, id)
	}
	sort.Strings(members)
	return members, nil
}

func (s *memoryStore) TouchLastSeen(ctx context.Context, memberID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[memberID] = at
	return nil
}

func (s *memoryStore) LastSeen(ctx context.Context, memberID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.lastSeen[memberID]
	return at, ok, nil
}

func (s *memoryStore) Close() error {
	return nil
}

// connCount is used by tests to inspect the raw counter.
func (s *memoryStore) connCount(organizationID, memberID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[organizationID][memberID]
}
