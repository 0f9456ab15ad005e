package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

// GormMemberRepository implements MemberRepository using GORM.
type GormMemberRepository struct {
	db *gorm.DB
}

func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

func (r *GormMemberRepository) Create(ctx context.Context, member *domain.MemberModel) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(member).Error
}

// IsMember reports whether memberID belongs to the organization.
func (r *GormMemberRepository) IsMember(ctx context.Context, organizationID, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.MemberModel{}).
		Where("id = ? AND user_id = ?", memberID, organizationID).
		Count(&count).Error
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str("member_id", memberID).Msg("failed to check membership")
		return false, err
	}
	return count > 0, nil
}

func (r *GormMemberRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Member, error) {
	var models []domain.MemberModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", organizationID).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	members := make([]*domain.Member, len(models))
	for i := range models {
		members[i] = models[i].ToDomain()
	}
	return members, nil
}
