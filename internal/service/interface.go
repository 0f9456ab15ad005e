package service

import (
	"context"
	"errors"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
)

var (
	ErrInvalidPayload          = errors.New("invalid payload")
	ErrMemberNotInOrganization = errors.New("member not in organization")
	ErrWebsiteNotFound         = errors.New("website not found")
)

// Emitter delivers socket events to rooms or single connections. It is
// satisfied by the hub and by the cross-instance relay.
type Emitter interface {
	Emit(ctx context.Context, room, event string, payload interface{}, excludeConnID string) error
	SendTo(ctx context.Context, connID, event string, payload interface{}) error
}

// MemberDirectory answers organization membership questions.
type MemberDirectory interface {
	IsMember(ctx context.Context, organizationID, memberID string) (bool, error)
}

// ChatService handles socket chat events and history queries. Event
// handlers return an error only for logging; clients never see it.
type ChatService interface {
	GroupSend(ctx context.Context, id domain.Identity, p domain.GroupSendPayload) error
	DMSend(ctx context.Context, id domain.Identity, p domain.DMSendPayload) error
	TypingStart(ctx context.Context, id domain.Identity, p domain.TypingPayload) error
	TypingStop(ctx context.Context, id domain.Identity, p domain.TypingPayload) error
	DMRead(ctx context.Context, id domain.Identity, p domain.DMReadPayload) error
	GroupHistory(ctx context.Context, organizationID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error)
	DMHistory(ctx context.Context, organizationID, memberID, peerMemberID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error)
}

// PresenceService tracks connection-derived online state.
type PresenceService interface {
	Connect(ctx context.Context, id domain.Identity)
	Disconnect(ctx context.Context, id domain.Identity)
	ListOnline(ctx context.Context, organizationID string) ([]string, error)
}

// SnapshotService stores and reads captured snapshots and their analysis.
type SnapshotService interface {
	Create(ctx context.Context, organizationID string, req *domain.CreateSnapshotRequest) (*domain.SnapshotView, error)
	List(ctx context.Context, organizationID, websiteID string, limit int) ([]*domain.SnapshotView, error)
	SaveAnalysis(ctx context.Context, organizationID, websiteID string, req *domain.SaveAnalysisRequest) (*domain.AccessibilityResults, error)
	Results(ctx context.Context, organizationID, websiteID string) (*domain.AccessibilityResults, error)
}

// WebsiteService manages monitored websites.
type WebsiteService interface {
	List(ctx context.Context, organizationID string) ([]*domain.Website, error)
	Create(ctx context.Context, organizationID string, req *domain.CreateWebsiteRequest) (*domain.Website, error)
	Get(ctx context.Context, organizationID, websiteID string) (*domain.Website, error)
}

// ReportService produces PDF reports.
type ReportService interface {
	Generate(ctx context.Context, organizationID, websiteID string) (*domain.Report, error)
}
