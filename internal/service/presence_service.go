package service

import (
	"context"
	"time"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/store"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

type presenceService struct {
	store   store.PresenceStore
	emitter Emitter
}

func NewPresenceService(s store.PresenceStore, emitter Emitter) PresenceService {
	return &presenceService{store: s, emitter: emitter}
}

// Connect records the connection, announces the member to the rest of the
// organization on its first connection and sends the online list to the
// new connection. Store failures are logged and never block the socket.
func (s *presenceService) Connect(ctx context.Context, id domain.Identity) {
	l := log.Ctx(ctx)

	first, err := s.store.RecordConnect(ctx, id.OrganizationID, id.MemberID)
	if err != nil {
		l.Warn().Err(err).Msg("presence connect failed")
	} else if first {
		if err := s.emitter.Emit(ctx, id.OrgRoom(), domain.EventPresenceOnline, domain.PresenceEvent{MemberID: id.MemberID}, id.ConnID); err != nil {
			l.Warn().Err(err).Msg("emit presence:online failed")
		}
	}

	online, err := s.store.ListOnline(ctx, id.OrganizationID)
	if err != nil {
		l.Warn().Err(err).Msg("presence list failed")
		online = []string{}
	}
	if err := s.emitter.SendTo(ctx, id.ConnID, domain.EventPresenceList, domain.PresenceListEvent{Online: online}); err != nil {
		l.Warn().Err(err).Msg("send presence:list failed")
	}
}

// Disconnect releases the connection and announces the member offline when
// it was the member's last one.
func (s *presenceService) Disconnect(ctx context.Context, id domain.Identity) {
	l := log.Ctx(ctx)

	last, err := s.store.RecordDisconnect(ctx, id.OrganizationID, id.MemberID)
	if err != nil {
		l.Warn().Err(err).Msg("presence disconnect failed")
	} else if last {
		if err := s.emitter.Emit(ctx, id.OrgRoom(), domain.EventPresenceOffline, domain.PresenceEvent{MemberID: id.MemberID}, id.ConnID); err != nil {
			l.Warn().Err(err).Msg("emit presence:offline failed")
		}
	}

	if err := s.store.TouchLastSeen(ctx, id.MemberID, time.Now()); err != nil {
		l.Debug().Err(err).Msg("touch last seen failed")
	}
}

func (s *presenceService) ListOnline(ctx context.Context, organizationID string) ([]string, error) {
	online, err := s.store.ListOnline(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if online == nil {
		online = []string{}
	}
	return online, nil
}
