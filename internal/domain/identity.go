package domain

import "strings"

const (
	orgRoomPrefix    = "org:"
	memberRoomPrefix = "member:"
)

// Identity is the authenticated principal bound to one socket connection.
// It is produced once during the handshake and passed by value afterwards.
type Identity struct {
	OrganizationID string
	MemberID       string
	MemberRole     string
	ConnID         string
}

// Complete reports whether both the organization and member ids are present.
func (i Identity) Complete() bool {
	return strings.TrimSpace(i.OrganizationID) != "" && strings.TrimSpace(i.MemberID) != ""
}

// OrgRoom is the organization-wide room of this identity.
func (i Identity) OrgRoom() string {
	return OrgRoom(i.OrganizationID)
}

// MemberRoom is the personal room of this identity.
func (i Identity) MemberRoom() string {
	return MemberRoom(i.MemberID)
}

// Rooms returns the only two rooms a connection ever joins.
func (i Identity) Rooms() []string {
	return []string{i.OrgRoom(), i.MemberRoom()}
}

func OrgRoom(organizationID string) string {
	return orgRoomPrefix + organizationID
}

func MemberRoom(memberID string) string {
	return memberRoomPrefix + memberID
}
