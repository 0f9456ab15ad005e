package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/talhadevelopes/a11yguard-sub001/internal/audit"
	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/report"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/storage"
)

const reportContentType = "application/pdf"

type reportService struct {
	websites  WebsiteService
	snapshots SnapshotService
	renderer  report.Renderer
	storage   storage.Storage
	urlExpiry time.Duration
}

func NewReportService(websites WebsiteService, snapshots SnapshotService, renderer report.Renderer, store storage.Storage, urlExpiry time.Duration) ReportService {
	if urlExpiry <= 0 {
		urlExpiry = time.Hour
	}
	return &reportService{
		websites:  websites,
		snapshots: snapshots,
		renderer:  renderer,
		storage:   store,
		urlExpiry: urlExpiry,
	}
}

// Generate renders the latest results of a website to PDF, stores it and
// returns where it can be fetched. A render timeout is returned as
// report.ErrRenderTimeout.
func (s *reportService) Generate(ctx context.Context, organizationID, websiteID string) (*domain.Report, error) {
	website, err := s.websites.Get(ctx, organizationID, websiteID)
	if err != nil {
		return nil, err
	}
	results, err := s.snapshots.Results(ctx, organizationID, websiteID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	html, err := report.SummaryHTML(website, results, now)
	if err != nil {
		return nil, fmt.Errorf("build report html: %w", err)
	}

	pdf, err := s.renderer.Render(ctx, html)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%s/%s/%d.pdf", organizationID, websiteID, now.Unix())
	if err := s.storage.Write(ctx, key, bytes.NewReader(pdf), int64(len(pdf)), reportContentType); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}
	url, err := s.storage.GetURL(ctx, key, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("report url: %w", err)
	}

	l := log.Ctx(ctx)
	l.Info().Str("key", key).Int("size", len(pdf)).Msg("report generated")
	audit.LogWithDetail(ctx, audit.ActionGenerateReport, organizationID, websiteID, key, "report generated")

	return &domain.Report{
		WebsiteID:   websiteID,
		Key:         key,
		URL:         url,
		Size:        int64(len(pdf)),
		GeneratedAt: now,
	}, nil
}
