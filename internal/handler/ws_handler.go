package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/talhadevelopes/a11yguard-sub001/internal/auth"
	"github.com/talhadevelopes/a11yguard-sub001/internal/config"
	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/hub"
	"github.com/talhadevelopes/a11yguard-sub001/internal/metrics"
	"github.com/talhadevelopes/a11yguard-sub001/internal/service"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/response"
)

type WSHandler struct {
	hub      *hub.Hub
	emitter  service.Emitter
	auth     *auth.Authenticator
	chat     service.ChatService
	presence service.PresenceService
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(
	h *hub.Hub,
	emitter service.Emitter,
	authenticator *auth.Authenticator,
	chat service.ChatService,
	presence service.PresenceService,
	cfg config.WebSocketConfig,
) *WSHandler {
	return &WSHandler{
		hub:      h,
		emitter:  emitter,
		auth:     authenticator,
		chat:     chat,
		presence: presence,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{auth.BearerSubprotocol},
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket authenticates the handshake, upgrades the connection and
// runs it until the client goes away.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	identity, err := h.auth.Authenticate(c.Request)
	if err != nil {
		l.Debug().Err(err).Msg("websocket handshake rejected")
		response.Unauthorized(c, "unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	if !identity.Complete() {
		l.Warn().Msg("token lacks organization or member, closing connection")
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"), deadline)
		conn.Close()
		return
	}

	// The request context ends when this handler returns.
	ctx := log.WithConnection(context.Background(), identity.ConnID, identity.OrganizationID, identity.MemberID)
	cl := log.Ctx(ctx)

	client := hub.NewClient(h.hub, conn, identity, h.cfg)
	if err := h.hub.Register(client); err != nil {
		cl.Warn().Err(err).Msg("failed to register client")
		conn.Close()
		return
	}
	metrics.IncWSActive()
	cl.Info().Msg("websocket connected")

	h.presence.Connect(ctx, identity)

	go client.WritePump()
	go func() {
		client.ReadPump(h.frameHandler(ctx, identity))
		h.presence.Disconnect(ctx, identity)
		metrics.DecWSActive()
		cl.Info().Msg("websocket disconnected")
	}()
}

// frameHandler dispatches inbound frames of one connection. A failing or
// panicking event is dropped without affecting the connection.
func (h *WSHandler) frameHandler(ctx context.Context, identity domain.Identity) func(*hub.Client, []byte) {
	return func(c *hub.Client, raw []byte) {
		l := log.Ctx(ctx)
		event := "invalid"
		defer func() {
			if r := recover(); r != nil {
				l.Error().Interface("panic", r).Str(log.FieldEvent, event).Msg("socket event panicked")
				metrics.IncWSEvent(event, metrics.OutcomeDropped)
			}
		}()

		var frame domain.Frame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
			l.Debug().Err(err).Msg("malformed frame")
			metrics.IncWSEvent(event, metrics.OutcomeDropped)
			return
		}
		event = frame.Event

		var err error
		switch frame.Event {
		case domain.EventGroupSend:
			var p domain.GroupSendPayload
			if err = decodeData(frame.Data, &p); err == nil {
				err = h.chat.GroupSend(ctx, identity, p)
			}
		case domain.EventDMSend:
			var p domain.DMSendPayload
			if err = decodeData(frame.Data, &p); err == nil {
				err = h.chat.DMSend(ctx, identity, p)
			}
		case domain.EventTypingStart, domain.EventTypingStop:
			var p domain.TypingPayload
			if err = decodeData(frame.Data, &p); err == nil {
				if frame.Event == domain.EventTypingStart {
					err = h.chat.TypingStart(ctx, identity, p)
				} else {
					err = h.chat.TypingStop(ctx, identity, p)
				}
			}
		case domain.EventDMRead:
			var p domain.DMReadPayload
			if err = decodeData(frame.Data, &p); err == nil {
				err = h.chat.DMRead(ctx, identity, p)
			}
		case domain.EventPing:
			err = h.emitter.SendTo(ctx, c.ID, domain.EventPong, nil)
		default:
			l.Debug().Str(log.FieldEvent, frame.Event).Msg("unknown event")
			metrics.IncWSEvent("unknown", metrics.OutcomeUnknown)
			return
		}

		if err != nil {
			logDropped(l, frame.Event, err)
			metrics.IncWSEvent(frame.Event, metrics.OutcomeDropped)
			return
		}
		metrics.IncWSEvent(frame.Event, metrics.OutcomeHandled)
	}
}

func decodeData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return service.ErrInvalidPayload
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(service.ErrInvalidPayload, err)
	}
	return nil
}

// logDropped logs expected rejections at debug and infrastructure
// failures at warn.
func logDropped(l zerolog.Logger, event string, err error) {
	if errors.Is(err, service.ErrInvalidPayload) || errors.Is(err, service.ErrMemberNotInOrganization) {
		l.Debug().Err(err).Str(log.FieldEvent, event).Msg("socket event dropped")
		return
	}
	l.Warn().Err(err).Str(log.FieldEvent, event).Msg("socket event failed")
}
