package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/talhadevelopes/a11yguard-sub001/internal/audit"
	"github.com/talhadevelopes/a11yguard-sub001/internal/cache"
	"github.com/talhadevelopes/a11yguard-sub001/internal/codec"
	"github.com/talhadevelopes/a11yguard-sub001/internal/config"
	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/kafka"
	"github.com/talhadevelopes/a11yguard-sub001/internal/metrics"
	"github.com/talhadevelopes/a11yguard-sub001/internal/repository"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

type snapshotService struct {
	snapshots repository.SnapshotRepository
	issues    repository.IssueRepository
	websites  WebsiteService
	producer  kafka.SnapshotEventProducer
	cache     *cache.Accessor
	keys      cache.Keys
	cfg       config.CacheConfig
}

func NewSnapshotService(
	snapshots repository.SnapshotRepository,
	issues repository.IssueRepository,
	websites WebsiteService,
	producer kafka.SnapshotEventProducer,
	accessor *cache.Accessor,
	cfg config.CacheConfig,
) SnapshotService {
	if producer == nil {
		producer = kafka.NoopProducer{}
	}
	return &snapshotService{
		snapshots: snapshots,
		issues:    issues,
		websites:  websites,
		producer:  producer,
		cache:     accessor,
		keys:      cache.Keys{Prefix: cfg.Prefix},
		cfg:       cfg,
	}
}

func (s *snapshotService) Create(ctx context.Context, organizationID string, req *domain.CreateSnapshotRequest) (*domain.SnapshotView, error) {
	if _, err := s.websites.Get(ctx, organizationID, req.WebsiteID); err != nil {
		return nil, err
	}

	snapshot, err := s.store(ctx, organizationID, req.WebsiteID, req.Title, req.URL, req.Content, req.Metadata, nil)
	if err != nil {
		return nil, err
	}

	if len(req.Issues) > 0 {
		if err := s.issues.InsertMany(ctx, buildIssues(snapshot, req.Issues)); err != nil {
			return nil, fmt.Errorf("insert issues: %w", err)
		}
	}

	s.invalidate(ctx, organizationID, req.WebsiteID)
	s.publish(ctx, snapshot, len(req.Issues))
	audit.LogWithDetail(ctx, audit.ActionCreateSnapshot, organizationID, req.WebsiteID, snapshot.ID, "snapshot created")

	return &domain.SnapshotView{
		ID:                    snapshot.ID,
		WebsiteID:             snapshot.WebsiteID,
		Title:                 snapshot.Title,
		URL:                   snapshot.URL,
		CapturedAt:            snapshot.CapturedAt,
		Content:               req.Content,
		Metadata:              req.Metadata,
		ContentSize:           snapshot.ContentSize,
		ContentCompressedSize: snapshot.ContentCompressedSize,
	}, nil
}

func (s *snapshotService) List(ctx context.Context, organizationID, websiteID string, limit int) ([]*domain.SnapshotView, error) {
	if limit <= 0 {
		limit = domain.DefaultSnapshotLimit
	}
	if limit > domain.MaxSnapshotLimit {
		limit = domain.MaxSnapshotLimit
	}

	// Rows are cached in stored form and decoded after every read.
	rows, err := cache.ReadThrough(ctx, s.cache, s.keys.Snapshots(organizationID, websiteID, limit), s.cfg.SnapshotsTTL,
		func(ctx context.Context) ([]*domain.Snapshot, error) {
			return s.snapshots.ListByWebsite(ctx, organizationID, websiteID, limit)
		})
	if err != nil {
		return nil, err
	}

	l := log.Ctx(ctx)
	views := make([]*domain.SnapshotView, 0, len(rows))
	for _, row := range rows {
		decoded := codec.DecodePayload(row.EncodedPayload)
		if decoded.ContentErr != nil {
			l.Warn().Err(decoded.ContentErr).Str("snapshot_id", row.ID).Msg("failed to decode snapshot content")
		}
		if decoded.MetadataErr != nil {
			l.Warn().Err(decoded.MetadataErr).Str("snapshot_id", row.ID).Msg("failed to decode snapshot metadata")
		}
		views = append(views, &domain.SnapshotView{
			ID:                    row.ID,
			WebsiteID:             row.WebsiteID,
			Title:                 row.Title,
			URL:                   row.URL,
			CapturedAt:            row.CapturedAt,
			AnalyzedAt:            row.AnalyzedAt,
			Content:               decoded.Content,
			Metadata:              decoded.Metadata,
			ContentSize:           row.ContentSize,
			ContentCompressedSize: row.ContentCompressedSize,
		})
	}
	return views, nil
}

// SaveAnalysis attaches analysis to the most recent snapshot of the website,
// creating one when none exists, and replaces its issue set. Between the
// delete and the insert a reader may observe zero issues.
func (s *snapshotService) SaveAnalysis(ctx context.Context, organizationID, websiteID string, req *domain.SaveAnalysisRequest) (*domain.AccessibilityResults, error) {
	if _, err := s.websites.Get(ctx, organizationID, websiteID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snapshot, err := s.snapshots.FindLatest(ctx, organizationID, websiteID)
	switch {
	case err == nil:
		if err := s.snapshots.SetAnalyzedAt(ctx, snapshot.ID, now); err != nil {
			return nil, fmt.Errorf("set analyzed at: %w", err)
		}
		snapshot.AnalyzedAt = &now
	case errors.Is(err, repository.ErrNotFound):
		snapshot, err = s.store(ctx, organizationID, websiteID, req.Title, req.URL, req.Content, req.Metadata, &now)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, snapshot, len(req.Issues))
	default:
		return nil, err
	}

	removed, err := s.issues.DeleteBySnapshot(ctx, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("delete issues: %w", err)
	}
	issues := buildIssues(snapshot, req.Issues)
	if len(issues) > 0 {
		if err := s.issues.InsertMany(ctx, issues); err != nil {
			return nil, fmt.Errorf("insert issues: %w", err)
		}
	}

	s.invalidate(ctx, organizationID, websiteID)
	audit.LogWithDetail(ctx, audit.ActionSaveAnalysis, organizationID, websiteID,
		fmt.Sprintf("snapshot=%s removed=%d inserted=%d", snapshot.ID, removed, len(issues)), "analysis saved")

	return buildResults(websiteID, snapshot, issues), nil
}

func (s *snapshotService) Results(ctx context.Context, organizationID, websiteID string) (*domain.AccessibilityResults, error) {
	return cache.ReadThrough(ctx, s.cache, s.keys.Results(organizationID, websiteID), s.cfg.ResultsTTL,
		func(ctx context.Context) (*domain.AccessibilityResults, error) {
			snapshot, err := s.snapshots.FindLatestAnalyzed(ctx, organizationID, websiteID)
			if errors.Is(err, repository.ErrNotFound) {
				return buildResults(websiteID, nil, nil), nil
			}
			if err != nil {
				return nil, err
			}
			issues, err := s.issues.ListBySnapshot(ctx, snapshot.ID)
			if err != nil {
				return nil, err
			}
			return buildResults(websiteID, snapshot, issues), nil
		})
}

func (s *snapshotService) store(ctx context.Context, organizationID, websiteID, title, url, content string, metadata map[string]interface{}, analyzedAt *time.Time) (*domain.Snapshot, error) {
	payload, err := codec.Encode(content, metadata)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	metrics.ObserveSnapshotPayload("content", payload.ContentSize, payload.ContentCompressedSize)
	if metadata != nil {
		metrics.ObserveSnapshotPayload("metadata", payload.MetadataSize, payload.MetadataCompressedSize)
	}

	snapshot := &domain.Snapshot{
		WebsiteID:      websiteID,
		UserID:         organizationID,
		Title:          title,
		URL:            url,
		CapturedAt:     time.Now().UTC(),
		AnalyzedAt:     analyzedAt,
		EncodedPayload: payload,
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *snapshotService) invalidate(ctx context.Context, organizationID, websiteID string) {
	s.cache.InvalidatePrefix(ctx, s.keys.SnapshotsPrefix(organizationID, websiteID))
	s.cache.Invalidate(ctx, s.keys.Results(organizationID, websiteID))
}

func (s *snapshotService) publish(ctx context.Context, snapshot *domain.Snapshot, issueCount int) {
	if err := s.producer.PublishSnapshotCaptured(ctx, kafka.NewSnapshotCaptured(snapshot, issueCount)); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("snapshot_id", snapshot.ID).Msg("failed to publish snapshot event")
	}
}

func buildIssues(snapshot *domain.Snapshot, inputs []domain.IssueInput) []*domain.AccessibilityIssue {
	issues := make([]*domain.AccessibilityIssue, 0, len(inputs))
	for _, in := range inputs {
		issues = append(issues, &domain.AccessibilityIssue{
			SnapshotID: snapshot.ID,
			WebsiteID:  snapshot.WebsiteID,
			UserID:     snapshot.UserID,
			Type:       in.Type,
			Message:    in.Message,
			Source:     in.Source,
			Context:    in.Context,
			Selector:   in.Selector,
			CreatedAt:  time.Now().UTC(),
		})
	}
	return issues
}

func buildResults(websiteID string, snapshot *domain.Snapshot, issues []*domain.AccessibilityIssue) *domain.AccessibilityResults {
	if issues == nil {
		issues = []*domain.AccessibilityIssue{}
	}
	results := &domain.AccessibilityResults{
		WebsiteID: websiteID,
		Total:     len(issues),
		Counts:    domain.CountIssues(issues),
		Issues:    issues,
	}
	if snapshot != nil {
		capturedAt := snapshot.CapturedAt
		results.SnapshotID = snapshot.ID
		results.Title = snapshot.Title
		results.URL = snapshot.URL
		results.CapturedAt = &capturedAt
		results.AnalyzedAt = snapshot.AnalyzedAt
	}
	return results
}
