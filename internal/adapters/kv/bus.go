package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultBusChannel = "carelink:emit"

// replySuffix names the channel carrying safety check replies next to the
// frame channel.
const replySuffix = ":check_reply"

type busEnvelope struct {
	SID   domain.SessionID `json:"sid"`
	Frame json.RawMessage  `json:"frame"`
}

// Bus fans frames out to every process over Redis Pub/Sub. The process
// holding the socket delivers it, the others drop it. Safety check replies
// travel on a second channel the same way.
type Bus struct {
	client  *redis.Client
	channel string
	replies string
}

var (
	_ core.Bus      = (*Bus)(nil)
	_ core.ReplyBus = (*Bus)(nil)
)

func NewBus(client *redis.Client, channel string) *Bus {
	if channel == "" {
		channel = DefaultBusChannel
	}
	return &Bus{client: client, channel: channel, replies: channel + replySuffix}
}

func (b *Bus) Publish(ctx context.Context, sid domain.SessionID, f core.Frame) error {
	payload, err := json.Marshal(busEnvelope{SID: sid, Frame: json.RawMessage(f)})
	if err != nil {
		return fmt.Errorf("kv: bus encode: %w", err)
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *Bus) Subscribe(ctx context.Context, deliver func(domain.SessionID, core.Frame)) error {
	return b.listen(ctx, b.channel, func(payload string) {
		var env busEnvelope
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			log.Error().Err(err).Str("module", "kv.bus").Msg("bad bus envelope")
			return
		}
		deliver(env.SID, core.Frame(env.Frame))
	})
}

func (b *Bus) PublishReply(ctx context.Context, r core.RoutedReply) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("kv: reply encode: %w", err)
	}
	return b.client.Publish(ctx, b.replies, payload).Err()
}

func (b *Bus) SubscribeReplies(ctx context.Context, deliver func(core.RoutedReply)) error {
	return b.listen(ctx, b.replies, func(payload string) {
		var r core.RoutedReply
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			log.Error().Err(err).Str("module", "kv.bus").Msg("bad check reply")
			return
		}
		deliver(r)
	})
}

// ReplyChannel is the Pub/Sub channel used for safety check replies.
func (b *Bus) ReplyChannel() string { return b.replies }

func (b *Bus) listen(ctx context.Context, channel string, handle func(string)) error {
	ps := b.client.Subscribe(ctx, channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("kv: bus subscribe %s: %w", channel, err)
	}
	log.Info().Str("module", "kv.bus").Str("channel", channel).Msg("subscribed")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handle(msg.Payload)
		}
	}
}
