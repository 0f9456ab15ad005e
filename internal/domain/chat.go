package domain

import (
	"strings"
	"time"
)

// MessageType is the kind of chat message.
type MessageType string

const (
	MessageTypeGroup MessageType = "group"
	MessageTypeDM    MessageType = "dm"
)

// MaxContentLength bounds chat message content, in characters.
const MaxContentLength = 2000

// ChatMessage is a persisted group or direct message.
type ChatMessage struct {
	ID             string      `bson:"_id" json:"id"`
	UserID         string      `bson:"userId" json:"userId"`
	Type           MessageType `bson:"type" json:"type"`
	FromMemberID   string      `bson:"fromMemberId" json:"fromMemberId"`
	ToMemberID     string      `bson:"toMemberId,omitempty" json:"toMemberId,omitempty"`
	ConversationID string      `bson:"conversationId,omitempty" json:"conversationId,omitempty"`
	Content        string      `bson:"content" json:"content"`
	CreatedAt      time.Time   `bson:"createdAt" json:"createdAt"`
	ReadBy         []string    `bson:"readBy" json:"readBy"`
}

// DMKey returns the conversation key for a pair of members. It is symmetric.
func DMKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// NormalizeContent trims content and reports whether it is acceptable.
func NormalizeContent(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", false
	}
	if len([]rune(content)) > MaxContentLength {
		return "", false
	}
	return content, true
}

// HistoryQuery pages through messages by createdAt descending.
type HistoryQuery struct {
	Limit  int
	Before *time.Time
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// Normalize applies the default and the cap to the page size.
func (q HistoryQuery) Normalize() HistoryQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultHistoryLimit
	}
	if q.Limit > MaxHistoryLimit {
		q.Limit = MaxHistoryLimit
	}
	return q
}

// ReadReceipt marks dm messages from Peer to Reader up to Until as read.
type ReadReceipt struct {
	OrganizationID string
	ReaderMemberID string
	PeerMemberID   string
	Until          time.Time
}
