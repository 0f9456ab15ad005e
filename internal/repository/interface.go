package repository

import (
	"context"
	"errors"
	"time"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")
)

// MessageRepository persists chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListGroup(ctx context.Context, organizationID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error)
	ListDM(ctx context.Context, organizationID, conversationID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error)
	// MarkRead adds the reader to readBy of every matching dm from the peer.
	// It is idempotent and returns the number of messages changed.
	MarkRead(ctx context.Context, receipt domain.ReadReceipt) (int64, error)
}

// SnapshotRepository persists captured snapshots.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.Snapshot) error
	ListByWebsite(ctx context.Context, organizationID, websiteID string, limit int) ([]*domain.Snapshot, error)
	FindLatest(ctx context.Context, organizationID, websiteID string) (*domain.Snapshot, error)
	FindLatestAnalyzed(ctx context.Context, organizationID, websiteID string) (*domain.Snapshot, error)
	SetAnalyzedAt(ctx context.Context, snapshotID string, at time.Time) error
}

// IssueRepository persists accessibility issues.
type IssueRepository interface {
	InsertMany(ctx context.Context, issues []*domain.AccessibilityIssue) error
	DeleteBySnapshot(ctx context.Context, snapshotID string) (int64, error)
	ListBySnapshot(ctx context.Context, snapshotID string) ([]*domain.AccessibilityIssue, error)
}

// MemberRepository reads organization membership.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.MemberModel) error
	IsMember(ctx context.Context, organizationID, memberID string) (bool, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Member, error)
}

// WebsiteRepository persists monitored websites.
type WebsiteRepository interface {
	Create(ctx context.Context, website *domain.Website) error
	GetByID(ctx context.Context, organizationID, id string) (*domain.Website, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Website, error)
}
