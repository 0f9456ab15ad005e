package service

import (
	"context"
	"errors"
	"strings"

	"github.com/talhadevelopes/a11yguard-sub001/internal/audit"
	"github.com/talhadevelopes/a11yguard-sub001/internal/cache"
	"github.com/talhadevelopes/a11yguard-sub001/internal/config"
	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/repository"
)

type websiteService struct {
	repo  repository.WebsiteRepository
	cache *cache.Accessor
	keys  cache.Keys
	cfg   config.CacheConfig
}

func NewWebsiteService(repo repository.WebsiteRepository, accessor *cache.Accessor, cfg config.CacheConfig) WebsiteService {
	return &websiteService{
		repo:  repo,
		cache: accessor,
		keys:  cache.Keys{Prefix: cfg.Prefix},
		cfg:   cfg,
	}
}

func (s *websiteService) List(ctx context.Context, organizationID string) ([]*domain.Website, error) {
	return cache.ReadThrough(ctx, s.cache, s.keys.Websites(organizationID), s.cfg.WebsitesTTL,
		func(ctx context.Context) ([]*domain.Website, error) {
			websites, err := s.repo.ListByOrganization(ctx, organizationID)
			if err != nil {
				return nil, err
			}
			if websites == nil {
				websites = []*domain.Website{}
			}
			return websites, nil
		})
}

func (s *websiteService) Create(ctx context.Context, organizationID string, req *domain.CreateWebsiteRequest) (*domain.Website, error) {
	website := &domain.Website{
		UserID: organizationID,
		Name:   strings.TrimSpace(req.Name),
		URL:    strings.TrimSpace(req.URL),
		Tags:   req.Tags,
	}
	if err := s.repo.Create(ctx, website); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, s.keys.Websites(organizationID))
	audit.Log(ctx, audit.ActionCreateWebsite, organizationID, website.ID, "website created")
	return website, nil
}

func (s *websiteService) Get(ctx context.Context, organizationID, websiteID string) (*domain.Website, error) {
	website, err := s.repo.GetByID(ctx, organizationID, websiteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWebsiteNotFound
		}
		return nil, err
	}
	return website, nil
}
