package domain

import "encoding/json"

// Socket events from client.
const (
	EventGroupSend   = "group:send"
	EventDMSend      = "dm:send"
	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"
	EventDMRead      = "dm:read"
	EventPing        = "ping"
)

// Socket events to client.
const (
	EventGroupNew        = "group:new"
	EventDMNew           = "dm:new"
	EventTyping          = "typing"
	EventPresenceOnline  = "presence:online"
	EventPresenceOffline = "presence:offline"
	EventPresenceList    = "presence:list"
	EventPong            = "pong"
)

// Typing scopes.
const (
	TypingRoomGroup = "group"
	TypingRoomDM    = "dm"
)

// Frame is the envelope of every socket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> Server payloads

type GroupSendPayload struct {
	Content string `json:"content"`
}

type DMSendPayload struct {
	ToMemberID string `json:"toMemberId"`
	Content    string `json:"content"`
}

type TypingPayload struct {
	Room         string `json:"room"`
	PeerMemberID string `json:"peerMemberId,omitempty"`
}

type DMReadPayload struct {
	PeerMemberID  string `json:"peerMemberId"`
	LastCreatedAt string `json:"lastCreatedAt"`
}

// Server -> Client payloads

type MessageEvent struct {
	Message *ChatMessage `json:"message"`
}

type TypingEvent struct {
	Room         string `json:"room"`
	MemberID     string `json:"memberId"`
	Typing       bool   `json:"typing"`
	PeerMemberID string `json:"peerMemberId,omitempty"`
}

type DMReadEvent struct {
	PeerMemberID   string `json:"peerMemberId"`
	ReaderMemberID string `json:"readerMemberId"`
	LastCreatedAt  string `json:"lastCreatedAt"`
}

type PresenceEvent struct {
	MemberID string `json:"memberId"`
}

type PresenceListEvent struct {
	Online []string `json:"online"`
}
