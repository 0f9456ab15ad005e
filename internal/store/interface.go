package store

import (
	"context"
	"time"
)

// PresenceStore tracks per-organization online members and per-member
// connection counts. A member is online iff its connection count is >= 1.
type PresenceStore interface {
	// RecordConnect increments the member's connection count and reports
	// whether this was the member's first connection.
	RecordConnect(ctx context.Context, organizationID, memberID string) (bool, error)

	// RecordDisconnect decrements the member's connection count and reports
	// whether this was the member's last connection.
	RecordDisconnect(ctx context.Context, organizationID, memberID string) (bool, error)

	// ListOnline returns the online member ids of an organization, sorted.
	ListOnline(ctx context.Context, organizationID string) ([]string, error)

	// TouchLastSeen records the time a member was last seen.
	TouchLastSeen(ctx context.Context, memberID string, at time.Time) error

	// LastSeen returns the last-seen time of a member, if recorded.
	LastSeen(ctx context.Context, memberID string) (time.Time, bool, error)

	// Close releases the store.
	Close() error
}
