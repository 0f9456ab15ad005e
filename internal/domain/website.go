package domain

import (
	"time"

	"gorm.io/gorm"
)

// WebsiteModel is the GORM model for monitored websites.
type WebsiteModel struct {
	ID        string         `gorm:"type:varchar(36);primaryKey"`
	UserID    string         `gorm:"type:varchar(36);index;not null"`
	Name      string         `gorm:"type:varchar(200);not null"`
	URL       string         `gorm:"type:varchar(2048);not null"`
	Tags      []string       `gorm:"type:text;serializer:json"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for WebsiteModel.
func (WebsiteModel) TableName() string {
	return "websites"
}

// Website is a site monitored by an organization.
type Website struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToDomain converts WebsiteModel to domain Website.
func (m *WebsiteModel) ToDomain() *Website {
	return &Website{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		URL:       m.URL,
		Tags:      m.Tags,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// WebsiteToModel converts domain Website to WebsiteModel.
func WebsiteToModel(w *Website) *WebsiteModel {
	return &WebsiteModel{
		ID:        w.ID,
		UserID:    w.UserID,
		Name:      w.Name,
		URL:       w.URL,
		Tags:      w.Tags,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// CreateWebsiteRequest represents a create website request.
type CreateWebsiteRequest struct {
	Name string   `json:"name" binding:"required,min=1,max=200"`
	URL  string   `json:"url" binding:"required,url"`
	Tags []string `json:"tags"`
}
