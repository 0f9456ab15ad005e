package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/repository"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

type chatService struct {
	messages repository.MessageRepository
	members  MemberDirectory
	emitter  Emitter
}

func NewChatService(messages repository.MessageRepository, members MemberDirectory, emitter Emitter) ChatService {
	return &chatService{
		messages: messages,
		members:  members,
		emitter:  emitter,
	}
}

func (s *chatService) GroupSend(ctx context.Context, id domain.Identity, p domain.GroupSendPayload) error {
	content, ok := domain.NormalizeContent(p.Content)
	if !ok {
		return ErrInvalidPayload
	}

	msg := &domain.ChatMessage{
		UserID:       id.OrganizationID,
		Type:         domain.MessageTypeGroup,
		FromMemberID: id.MemberID,
		Content:      content,
		CreatedAt:    messageTime(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("persist group message: %w", err)
	}

	// The sender's own connections receive the message too.
	return s.emitter.Emit(ctx, id.OrgRoom(), domain.EventGroupNew, domain.MessageEvent{Message: msg}, "")
}

func (s *chatService) DMSend(ctx context.Context, id domain.Identity, p domain.DMSendPayload) error {
	to := strings.TrimSpace(p.ToMemberID)
	content, ok := domain.NormalizeContent(p.Content)
	if to == "" || !ok {
		return ErrInvalidPayload
	}
	if err := s.requireMember(ctx, id.OrganizationID, to); err != nil {
		return err
	}

	msg := &domain.ChatMessage{
		UserID:         id.OrganizationID,
		Type:           domain.MessageTypeDM,
		FromMemberID:   id.MemberID,
		ToMemberID:     to,
		ConversationID: domain.DMKey(id.MemberID, to),
		Content:        content,
		CreatedAt:      messageTime(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("persist dm: %w", err)
	}

	return s.emitToMembers(ctx, domain.EventDMNew, domain.MessageEvent{Message: msg}, to, id.MemberID)
}

func (s *chatService) TypingStart(ctx context.Context, id domain.Identity, p domain.TypingPayload) error {
	return s.typing(ctx, id, p, true)
}

func (s *chatService) TypingStop(ctx context.Context, id domain.Identity, p domain.TypingPayload) error {
	return s.typing(ctx, id, p, false)
}

func (s *chatService) typing(ctx context.Context, id domain.Identity, p domain.TypingPayload, typing bool) error {
	switch p.Room {
	case domain.TypingRoomGroup:
		ev := domain.TypingEvent{Room: domain.TypingRoomGroup, MemberID: id.MemberID, Typing: typing}
		return s.emitter.Emit(ctx, id.OrgRoom(), domain.EventTyping, ev, id.ConnID)

	case domain.TypingRoomDM:
		peer := strings.TrimSpace(p.PeerMemberID)
		if peer == "" {
			return ErrInvalidPayload
		}
		if err := s.requireMember(ctx, id.OrganizationID, peer); err != nil {
			return err
		}
		ev := domain.TypingEvent{Room: domain.TypingRoomDM, MemberID: id.MemberID, Typing: typing, PeerMemberID: peer}
		return s.emitter.Emit(ctx, domain.MemberRoom(peer), domain.EventTyping, ev, "")

	default:
		return ErrInvalidPayload
	}
}

func (s *chatService) DMRead(ctx context.Context, id domain.Identity, p domain.DMReadPayload) error {
	peer := strings.TrimSpace(p.PeerMemberID)
	if peer == "" {
		return ErrInvalidPayload
	}
	until, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(p.LastCreatedAt))
	if err != nil {
		return ErrInvalidPayload
	}
	if err := s.requireMember(ctx, id.OrganizationID, peer); err != nil {
		return err
	}

	modified, err := s.messages.MarkRead(ctx, domain.ReadReceipt{
		OrganizationID: id.OrganizationID,
		ReaderMemberID: id.MemberID,
		PeerMemberID:   peer,
		Until:          until,
	})
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	l := log.Ctx(ctx)
	l.Debug().Str("peer_member_id", peer).Int64("modified", modified).Msg("dm read")

	ev := domain.DMReadEvent{
		PeerMemberID:   peer,
		ReaderMemberID: id.MemberID,
		LastCreatedAt:  p.LastCreatedAt,
	}
	return s.emitToMembers(ctx, domain.EventDMRead, ev, peer, id.MemberID)
}

func (s *chatService) GroupHistory(ctx context.Context, organizationID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error) {
	return s.messages.ListGroup(ctx, organizationID, q.Normalize())
}

func (s *chatService) DMHistory(ctx context.Context, organizationID, memberID, peerMemberID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error) {
	peer := strings.TrimSpace(peerMemberID)
	if peer == "" {
		return nil, ErrInvalidPayload
	}
	if err := s.requireMember(ctx, organizationID, peer); err != nil {
		return nil, err
	}
	return s.messages.ListDM(ctx, organizationID, domain.DMKey(memberID, peer), q.Normalize())
}

// requireMember returns ErrMemberNotInOrganization unless memberID belongs
// to organizationID.
func (s *chatService) requireMember(ctx context.Context, organizationID, memberID string) error {
	ok, err := s.members.IsMember(ctx, organizationID, memberID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return ErrMemberNotInOrganization
	}
	return nil
}

// emitToMembers emits once to each distinct personal room.
func (s *chatService) emitToMembers(ctx context.Context, event string, payload interface{}, memberIDs ...string) error {
	seen := make(map[string]struct{}, len(memberIDs))
	var errs []error
	for _, memberID := range memberIDs {
		if _, ok := seen[memberID]; ok {
			continue
		}
		seen[memberID] = struct{}{}
		if err := s.emitter.Emit(ctx, domain.MemberRoom(memberID), event, payload, ""); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// messageTime matches the millisecond precision of stored BSON dates so an
// emitted createdAt is usable as a history cursor.
func messageTime() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
