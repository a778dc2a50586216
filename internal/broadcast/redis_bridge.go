package broadcast

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultBridgeChannel = "cargoflow:broadcast"
	// forwardBuffer bounds the outbound queue between the hub and the
	// Redis publish loop. Overflow drops the event: the bridge is
	// best-effort and remote viewers recover via snapshot resync.
	forwardBuffer = 256
	// publishTimeout caps one Redis publish so a degraded connection
	// cannot back up the publish loop indefinitely.
	publishTimeout = 5 * time.Second
)

// envelope wraps an event for cross-instance transport. Origin lets each
// instance skip its own messages: local sessions already received the
// event at publish time.
type envelope struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
	Event  Event  `json:"event"`
}

// Bridge mirrors hub events over a Redis pub/sub channel so viewers
// connected to different server instances all see every event. Delivery
// stays best-effort: a bridge outage degrades to single-instance fan-out
// and the reconciliation layer's resync covers the gap.
type Bridge struct {
	rdb        *redis.Client
	hub        *Hub
	channel    string
	instanceID string
	out        chan envelope
	log        zerolog.Logger
}

// NewBridge wires a bridge to the hub. Subsequent hub publishes are
// forwarded to Redis; call Run to drain the forward queue and to receive
// events from other instances.
func NewBridge(rdb *redis.Client, hub *Hub, channel string, log zerolog.Logger) *Bridge {
	if channel == "" {
		channel = defaultBridgeChannel
	}
	b := &Bridge{
		rdb:        rdb,
		hub:        hub,
		channel:    channel,
		instanceID: newInstanceID(),
		out:        make(chan envelope, forwardBuffer),
		log:        log,
	}
	hub.bridge = b
	return b
}

// Run subscribes to the bridge channel and injects remote events into the
// local hub until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()

	go b.publishLoop(ctx)

	ch := sub.Channel()
	b.log.Info().Str("channel", b.channel).Str("instance", b.instanceID).Msg("broadcast bridge running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("broadcast bridge: subscription closed")
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn().Err(err).Msg("broadcast bridge: bad envelope")
				continue
			}
			if env.Origin == b.instanceID {
				continue
			}
			b.hub.deliver(env.Topic, env.Event)
		}
	}
}

// forward implements the hub's forwarder hook. It only hands the event to
// the publish loop: the hub calls it on the ingestion path, which must
// never wait on Redis I/O.
func (b *Bridge) forward(topic string, ev Event) {
	select {
	case b.out <- envelope{Origin: b.instanceID, Topic: topic, Event: ev}:
	default:
		b.log.Warn().Str("topic", topic).Msg("broadcast bridge: forward queue full, dropping event")
	}
}

// publishLoop drains the forward queue into Redis, one bounded publish at
// a time.
func (b *Bridge) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.out:
			payload, err := json.Marshal(env)
			if err != nil {
				b.log.Warn().Err(err).Msg("broadcast bridge: marshal failed")
				continue
			}
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := b.rdb.Publish(pctx, b.channel, payload).Err(); err != nil {
				b.log.Warn().Err(err).Msg("broadcast bridge: publish failed")
			}
			cancel()
		}
	}
}

func newInstanceID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "instance-unknown"
	}
	return fmt.Sprintf("%X", buf)
}
