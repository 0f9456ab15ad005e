package domain

import "time"

// AccessibilityIssue is a single finding attached to a snapshot.
type AccessibilityIssue struct {
	ID         string    `bson:"_id" json:"id"`
	SnapshotID string    `bson:"snapshotId" json:"snapshotId"`
	WebsiteID  string    `bson:"websiteId" json:"websiteId"`
	UserID     string    `bson:"userId" json:"userId"`
	Type       string    `bson:"type" json:"type"`
	Message    string    `bson:"message" json:"message"`
	Source     string    `bson:"source,omitempty" json:"source,omitempty"`
	Context    string    `bson:"context,omitempty" json:"context,omitempty"`
	Selector   string    `bson:"selector,omitempty" json:"selector,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// IssueInput is an issue as submitted by the extension.
type IssueInput struct {
	Type     string `json:"type" binding:"required,max=50"`
	Message  string `json:"message" binding:"required"`
	Source   string `json:"source"`
	Context  string `json:"context"`
	Selector string `json:"selector"`
}

// AccessibilityResults summarizes the latest analyzed snapshot of a website.
type AccessibilityResults struct {
	WebsiteID  string                `json:"websiteId"`
	SnapshotID string                `json:"snapshotId,omitempty"`
	Title      string                `json:"title,omitempty"`
	URL        string                `json:"url,omitempty"`
	CapturedAt *time.Time            `json:"capturedAt,omitempty"`
	AnalyzedAt *time.Time            `json:"analyzedAt,omitempty"`
	Total      int                   `json:"total"`
	Counts     map[string]int        `json:"counts"`
	Issues     []*AccessibilityIssue `json:"issues"`
}

// CountIssues tallies issues per type.
func CountIssues(issues []*AccessibilityIssue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Type]++
	}
	return counts
}

// Report is a generated PDF stored in object storage.
type Report struct {
	WebsiteID   string    `json:"websiteId"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	GeneratedAt time.Time `json:"generatedAt"`
}
