package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &domain.MemberModel{}, &domain.WebsiteModel{}))
	return db
}

func TestGormMemberRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMemberRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, &domain.MemberModel{ID: "m1", UserID: "org-x", Name: "Ada", Role: "admin"}))
	require.NoError(t, repo.Create(ctx, &domain.MemberModel{ID: "m2", UserID: "org-x", Name: "Bob", Role: "member"}))
	require.NoError(t, repo.Create(ctx, &domain.MemberModel{ID: "m3", UserID: "org-y", Name: "Cy", Role: "member"}))

	ok, err := repo.IsMember(ctx, "org-x", "m2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsMember(ctx, "org-x", "m3")
	require.NoError(t, err)
	assert.False(t, ok, "member of another organization")

	members, err := repo.ListByOrganization(ctx, "org-x")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Ada", members[0].Name)
}

func TestGormWebsiteRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormWebsiteRepository(newTestDB(t))

	site := &domain.Website{UserID: "org-x", Name: "Docs", URL: "https://docs.example.com", Tags: []string{"prod", "docs"}}
	require.NoError(t, repo.Create(ctx, site))
	assert.NotEmpty(t, site.ID)
	assert.False(t, site.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, "org-x", site.ID)
	require.NoError(t, err)
	assert.Equal(t, "Docs", got.Name)
	assert.Equal(t, []string{"prod", "docs"}, got.Tags)

	_, err = repo.GetByID(ctx, "org-y", site.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.ListByOrganization(ctx, "org-x")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = repo.ListByOrganization(ctx, "org-y")
	require.NoError(t, err)
	assert.Empty(t, list)
}
