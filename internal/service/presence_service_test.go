package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/mocks"
	"github.com/talhadevelopes/a11yguard-sub001/internal/store"
)

func countEmits(em *mocks.EmitterMock, event string) int {
	n := 0
	for _, call := range em.Calls {
		if call.Method == "Emit" && call.Arguments.String(2) == event {
			n++
		}
	}
	return n
}

func TestPresenceTwoConnectionsEmitsOneOffline(t *testing.T) {
	ctx := context.Background()
	ps := store.NewMemoryStore()
	em := new(mocks.EmitterMock)
	em.On("Emit", mock.Anything, "org:orgX", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	em.On("SendTo", mock.Anything, mock.Anything, domain.EventPresenceList, mock.Anything).Return(nil)
	svc := NewPresenceService(ps, em)

	c1 := domain.Identity{OrganizationID: "orgX", MemberID: "M", ConnID: "c1"}
	c2 := domain.Identity{OrganizationID: "orgX", MemberID: "M", ConnID: "c2"}

	svc.Connect(ctx, c1)
	svc.Connect(ctx, c2)
	assert.Equal(t, 1, countEmits(em, domain.EventPresenceOnline))
	em.AssertCalled(t, "Emit", mock.Anything, "org:orgX", domain.EventPresenceOnline, domain.PresenceEvent{MemberID: "M"}, "c1")
	em.AssertCalled(t, "SendTo", mock.Anything, "c2", domain.EventPresenceList, domain.PresenceListEvent{Online: []string{"M"}})

	svc.Disconnect(ctx, c1)
	online, err := svc.ListOnline(ctx, "orgX")
	require.NoError(t, err)
	assert.Equal(t, []string{"M"}, online)
	assert.Equal(t, 0, countEmits(em, domain.EventPresenceOffline))

	svc.Disconnect(ctx, c2)
	online, err = svc.ListOnline(ctx, "orgX")
	require.NoError(t, err)
	assert.Empty(t, online)
	assert.Equal(t, 1, countEmits(em, domain.EventPresenceOffline))
	em.AssertCalled(t, "Emit", mock.Anything, "org:orgX", domain.EventPresenceOffline, domain.PresenceEvent{MemberID: "M"}, "c2")

	_, ok, err := ps.LastSeen(ctx, "M")
	require.NoError(t, err)
	assert.True(t, ok)
}

// brokenStore fails every operation.
type brokenStore struct{}

var errStoreDown = errors.New("store down")

func (brokenStore) RecordConnect(ctx context.Context, org, member string) (bool, error) {
	return false, errStoreDown
}
func (brokenStore) RecordDisconnect(ctx context.Context, org, member string) (bool, error) {
	return false, errStoreDown
}
func (brokenStore) ListOnline(ctx context.Context, org string) ([]string, error) {
	return nil, errStoreDown
}
func (brokenStore) TouchLastSeen(ctx context.Context, member string, at time.Time) error {
	return errStoreDown
}
func (brokenStore) LastSeen(ctx context.Context, member string) (time.Time, bool, error) {
	return time.Time{}, false, errStoreDown
}
func (brokenStore) Close() error { return nil }

func TestPresenceStoreFailuresAreSwallowed(t *testing.T) {
	em := new(mocks.EmitterMock)
	em.On("SendTo", mock.Anything, "c1", domain.EventPresenceList, domain.PresenceListEvent{Online: []string{}}).Return(nil)
	svc := NewPresenceService(brokenStore{}, em)

	id := domain.Identity{OrganizationID: "orgX", MemberID: "M", ConnID: "c1"}
	assert.NotPanics(t, func() {
		svc.Connect(context.Background(), id)
		svc.Disconnect(context.Background(), id)
	})
	em.AssertExpectations(t)
	em.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	_, err := svc.ListOnline(context.Background(), "orgX")
	assert.ErrorIs(t, err, errStoreDown)
}
