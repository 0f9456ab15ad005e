package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/kafka"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListGroup(ctx context.Context, organizationID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, organizationID, q)
	var msgs []*domain.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]*domain.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListDM(ctx context.Context, organizationID, conversationID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, organizationID, conversationID, q)
	var msgs []*domain.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]*domain.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, receipt domain.ReadReceipt) (int64, error) {
	args := m.Called(ctx, receipt)
	return args.Get(0).(int64), args.Error(1)
}

type MemberDirectoryMock struct {
	mock.Mock
}

func (m *MemberDirectoryMock) IsMember(ctx context.Context, organizationID, memberID string) (bool, error) {
	args := m.Called(ctx, organizationID, memberID)
	return args.Bool(0), args.Error(1)
}

type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) Emit(ctx context.Context, room, event string, payload interface{}, excludeConnID string) error {
	args := m.Called(ctx, room, event, payload, excludeConnID)
	return args.Error(0)
}

func (m *EmitterMock) SendTo(ctx context.Context, connID, event string, payload interface{}) error {
	args := m.Called(ctx, connID, event, payload)
	return args.Error(0)
}

type SnapshotRepositoryMock struct {
	mock.Mock
}

func (m *SnapshotRepositoryMock) Create(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *SnapshotRepositoryMock) ListByWebsite(ctx context.Context, organizationID, websiteID string, limit int) ([]*domain.Snapshot, error) {
	args := m.Called(ctx, organizationID, websiteID, limit)
	var rows []*domain.Snapshot
	if val := args.Get(0); val != nil {
		rows = val.([]*domain.Snapshot)
	}
	return rows, args.Error(1)
}

func (m *SnapshotRepositoryMock) FindLatest(ctx context.Context, organizationID, websiteID string) (*domain.Snapshot, error) {
	args := m.Called(ctx, organizationID, websiteID)
	var row *domain.Snapshot
	if val := args.Get(0); val != nil {
		row = val.(*domain.Snapshot)
	}
	return row, args.Error(1)
}

func (m *SnapshotRepositoryMock) FindLatestAnalyzed(ctx context.Context, organizationID, websiteID string) (*domain.Snapshot, error) {
	args := m.Called(ctx, organizationID, websiteID)
	var row *domain.Snapshot
	if val := args.Get(0); val != nil {
		row = val.(*domain.Snapshot)
	}
	return row, args.Error(1)
}

func (m *SnapshotRepositoryMock) SetAnalyzedAt(ctx context.Context, snapshotID string, at time.Time) error {
	args := m.Called(ctx, snapshotID, at)
	return args.Error(0)
}

type IssueRepositoryMock struct {
	mock.Mock
}

func (m *IssueRepositoryMock) InsertMany(ctx context.Context, issues []*domain.AccessibilityIssue) error {
	args := m.Called(ctx, issues)
	return args.Error(0)
}

func (m *IssueRepositoryMock) DeleteBySnapshot(ctx context.Context, snapshotID string) (int64, error) {
	args := m.Called(ctx, snapshotID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *IssueRepositoryMock) ListBySnapshot(ctx context.Context, snapshotID string) ([]*domain.AccessibilityIssue, error) {
	args := m.Called(ctx, snapshotID)
	var issues []*domain.AccessibilityIssue
	if val := args.Get(0); val != nil {
		issues = val.([]*domain.AccessibilityIssue)
	}
	return issues, args.Error(1)
}

type WebsiteRepositoryMock struct {
	mock.Mock
}

func (m *WebsiteRepositoryMock) Create(ctx context.Context, website *domain.Website) error {
	args := m.Called(ctx, website)
	return args.Error(0)
}

func (m *WebsiteRepositoryMock) GetByID(ctx context.Context, organizationID, id string) (*domain.Website, error) {
	args := m.Called(ctx, organizationID, id)
	var website *domain.Website
	if val := args.Get(0); val != nil {
		website = val.(*domain.Website)
	}
	return website, args.Error(1)
}

func (m *WebsiteRepositoryMock) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Website, error) {
	args := m.Called(ctx, organizationID)
	var websites []*domain.Website
	if val := args.Get(0); val != nil {
		websites = val.([]*domain.Website)
	}
	return websites, args.Error(1)
}

type RendererMock struct {
	mock.Mock
}

func (m *RendererMock) Render(ctx context.Context, html []byte) ([]byte, error) {
	args := m.Called(ctx, html)
	var pdf []byte
	if val := args.Get(0); val != nil {
		pdf = val.([]byte)
	}
	return pdf, args.Error(1)
}

type SnapshotProducerMock struct {
	mock.Mock
}

func (m *SnapshotProducerMock) PublishSnapshotCaptured(ctx context.Context, event *kafka.SnapshotCaptured) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *SnapshotProducerMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
