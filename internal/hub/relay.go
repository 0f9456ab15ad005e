package hub

import (
	"context"
	"time"

	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/pubsub"
)

// Relay fans out emits to other instances through a pub/sub channel.
// Every emit is delivered locally first; events arriving from other
// instances are delivered locally only.
type Relay struct {
	hub        *Hub
	ps         pubsub.PubSub
	channel    string
	instanceID string
	doneCh     chan struct{}
}

func NewRelay(h *Hub, ps pubsub.PubSub, channel, instanceID string) *Relay {
	return &Relay{
		hub:        h,
		ps:         ps,
		channel:    channel,
		instanceID: instanceID,
		doneCh:     make(chan struct{}),
	}
}

// Done returns a channel that is closed when Run exits.
func (r *Relay) Done() <-chan struct{} { return r.doneCh }

func (r *Relay) Emit(ctx context.Context, room, event string, payload interface{}, excludeConnID string) error {
	if err := r.hub.Emit(ctx, room, event, payload, excludeConnID); err != nil {
		return err
	}

	ev, err := pubsub.NewEvent(event, r.instanceID, room, payload)
	if err != nil {
		return err
	}
	ev.Exclude = excludeConnID
	if err := r.ps.Publish(ctx, r.channel, ev); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("room", room).Msg("relay publish failed")
	}
	return nil
}

// SendTo addresses a connection, which always lives on this instance.
func (r *Relay) SendTo(ctx context.Context, connID, event string, payload interface{}) error {
	return r.hub.SendTo(ctx, connID, event, payload)
}

// Run delivers events from other instances until ctx is done, resubscribing
// after failures.
func (r *Relay) Run(ctx context.Context) {
	defer close(r.doneCh)
	l := log.L()

	for {
		err := r.runSubscription(ctx)
		if ctx.Err() != nil {
			return
		}
		l.Warn().Err(err).Msg("relay subscription ended, resubscribing in 2s")
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (r *Relay) runSubscription(ctx context.Context) error {
	events, err := r.ps.Subscribe(ctx, r.channel)
	if err != nil {
		return err
	}
	defer r.ps.Unsubscribe(context.Background(), r.channel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.handle(ctx, ev)
		}
	}
}

func (r *Relay) handle(ctx context.Context, ev *pubsub.Event) {
	if ev.Origin == r.instanceID || ev.Room == "" {
		return
	}
	frame, err := EncodeFrame(ev.Type, ev.Payload)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("relay: invalid event")
		return
	}
	if err := r.hub.EmitFrame(ctx, ev.Room, frame, ev.Exclude); err != nil {
		l := log.L()
		l.Error().Err(err).Str("room", ev.Room).Msg("relay: local delivery failed")
	}
}
