package kafka

import (
	"context"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
)

// SnapshotCaptured is published after a snapshot is stored.
type SnapshotCaptured struct {
	SnapshotID     string `json:"snapshotId"`
	WebsiteID      string `json:"websiteId"`
	OrganizationID string `json:"userId"`
	URL            string `json:"url,omitempty"`
	ContentSize    int    `json:"contentSize"`
	IssueCount     int    `json:"issueCount"`
	CapturedAt     int64  `json:"capturedAt"`
}

// NewSnapshotCaptured builds the event for a stored snapshot.
func NewSnapshotCaptured(s *domain.Snapshot, issueCount int) *SnapshotCaptured {
	return &SnapshotCaptured{
		SnapshotID:     s.ID,
		WebsiteID:      s.WebsiteID,
		OrganizationID: s.UserID,
		URL:            s.URL,
		ContentSize:    s.ContentSize,
		IssueCount:     issueCount,
		CapturedAt:     s.CapturedAt.UnixMilli(),
	}
}

type SnapshotEventProducer interface {
	PublishSnapshotCaptured(ctx context.Context, event *SnapshotCaptured) error
	Close() error
}

// NoopProducer drops events. It is used when Kafka is disabled.
type NoopProducer struct{}

func (NoopProducer) PublishSnapshotCaptured(ctx context.Context, event *SnapshotCaptured) error {
	return nil
}

func (NoopProducer) Close() error { return nil }
