package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

// GormWebsiteRepository implements WebsiteRepository using GORM.
type GormWebsiteRepository struct {
	db *gorm.DB
}

func NewGormWebsiteRepository(db *gorm.DB) *GormWebsiteRepository {
	return &GormWebsiteRepository{db: db}
}

// Create creates a new website.
func (r *GormWebsiteRepository) Create(ctx context.Context, website *domain.Website) error {
	l := log.Ctx(ctx)

	website.ID = uuid.New().String()

	model := domain.WebsiteToModel(website)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create website in db")
		return err
	}

	website.CreatedAt = model.CreatedAt
	website.UpdatedAt = model.UpdatedAt
	l.Debug().Str("website_id", website.ID).Msg("website created in db")
	return nil
}

// GetByID retrieves a website scoped to its organization.
func (r *GormWebsiteRepository) GetByID(ctx context.Context, organizationID, id string) (*domain.Website, error) {
	var model domain.WebsiteModel
	err := r.db.WithContext(ctx).First(&model, "id = ? AND user_id = ?", id, organizationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str("website_id", id).Msg("failed to get website by id")
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormWebsiteRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Website, error) {
	var models []domain.WebsiteModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", organizationID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	websites := make([]*domain.Website, len(models))
	for i := range models {
		websites[i] = models[i].ToDomain()
	}
	return websites, nil
}
