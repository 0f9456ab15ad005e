package domain

import "time"

// Content encodings stored alongside compressed payloads.
const (
	EncodingGzip     = "gzip"
	EncodingIdentity = "identity"
)

// EncodedPayload is the stored form of snapshot content and metadata.
// An empty encoding marks a legacy row whose bytes are raw text.
type EncodedPayload struct {
	ContentCompressed      []byte `bson:"contentCompressed" json:"contentCompressed,omitempty"`
	ContentEncoding        string `bson:"contentEncoding" json:"contentEncoding"`
	ContentSize            int    `bson:"contentSize" json:"contentSize"`
	ContentCompressedSize  int    `bson:"contentCompressedSize" json:"contentCompressedSize"`
	MetadataCompressed     []byte `bson:"metadataCompressed,omitempty" json:"metadataCompressed,omitempty"`
	MetadataEncoding       string `bson:"metadataEncoding,omitempty" json:"metadataEncoding,omitempty"`
	MetadataSize           int    `bson:"metadataSize" json:"metadataSize"`
	MetadataCompressedSize int    `bson:"metadataCompressedSize" json:"metadataCompressedSize"`
}

// Snapshot is a captured page with its compressed payload.
type Snapshot struct {
	ID             string     `bson:"_id" json:"id"`
	WebsiteID      string     `bson:"websiteId" json:"websiteId"`
	UserID         string     `bson:"userId" json:"userId"`
	Title          string     `bson:"title,omitempty" json:"title,omitempty"`
	URL            string     `bson:"url,omitempty" json:"url,omitempty"`
	CapturedAt     time.Time  `bson:"capturedAt" json:"capturedAt"`
	AnalyzedAt     *time.Time `bson:"analyzedAt,omitempty" json:"analyzedAt,omitempty"`
	EncodedPayload `bson:",inline"`
}

// SnapshotView is a snapshot with its payload decoded for API responses.
// Metadata is nil when absent or unreadable.
type SnapshotView struct {
	ID                    string                 `json:"id"`
	WebsiteID             string                 `json:"websiteId"`
	Title                 string                 `json:"title,omitempty"`
	URL                   string                 `json:"url,omitempty"`
	CapturedAt            time.Time              `json:"capturedAt"`
	AnalyzedAt            *time.Time             `json:"analyzedAt,omitempty"`
	Content               string                 `json:"content"`
	Metadata              map[string]interface{} `json:"metadata"`
	ContentSize           int                    `json:"contentSize"`
	ContentCompressedSize int                    `json:"contentCompressedSize"`
}

// CreateSnapshotRequest represents a snapshot captured by the extension.
type CreateSnapshotRequest struct {
	WebsiteID string                 `json:"websiteId" binding:"required"`
	Title     string                 `json:"title" binding:"max=500"`
	URL       string                 `json:"url" binding:"max=2048"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	Issues    []IssueInput           `json:"issues" binding:"dive"`
}

// SaveAnalysisRequest attaches analysis results to the latest snapshot.
type SaveAnalysisRequest struct {
	Title    string                 `json:"title" binding:"max=500"`
	URL      string                 `json:"url" binding:"max=2048"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
	Issues   []IssueInput           `json:"issues" binding:"dive"`
}

// ListSnapshotsRequest represents a list snapshots request.
type ListSnapshotsRequest struct {
	WebsiteID string `form:"websiteId" binding:"required"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
}

const (
	DefaultSnapshotLimit = 20
	MaxSnapshotLimit     = 100
)
