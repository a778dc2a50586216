package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/api/metrics"
	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

const sessionBuffer = 256

// sessionIDCounter hands out unique session ids for log correlation.
var sessionIDCounter atomic.Uint64

// Session is one subscribed viewer. Events arrive on C; a session whose
// buffer overflows is dropped by the hub and must resubscribe, relying on
// the next snapshot resync to catch up.
type Session struct {
	id    uint64
	topic string
	send  chan Event
}

// C returns the session's event stream. The channel is closed when the
// hub drops or unsubscribes the session.
func (s *Session) C() <-chan Event { return s.send }

// ID returns the session's process-unique identifier.
func (s *Session) ID() uint64 { return s.id }

// forwarder republishes locally published events beyond this process.
// Implemented by the Redis bridge; nil when running single-instance.
type forwarder interface {
	forward(topic string, ev Event)
}

// Hub owns the set of active subscriptions, scoped to process lifetime.
// Publish is at-most-once per connected session and never blocks: a slow
// session is dropped rather than stalling ingestion or its peers.
// FIFO per publisher is preserved because delivery happens on the
// publisher's goroutine; the sole writer per shipment is the ingestion
// path, which is all the ordering the viewers need.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Session]struct{}
	bridge  forwarder
	dropped atomic.Uint64
	log     zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Session]struct{}),
		log:    log,
	}
}

// Subscribe registers a new session on topic and returns it.
func (h *Hub) Subscribe(topic string) *Session {
	sess := &Session{
		id:    sessionIDCounter.Add(1),
		topic: topic,
		send:  make(chan Event, sessionBuffer),
	}

	h.mu.Lock()
	sessions, ok := h.topics[topic]
	if !ok {
		sessions = make(map[*Session]struct{})
		h.topics[topic] = sessions
	}
	sessions[sess] = struct{}{}
	total := len(sessions)
	h.mu.Unlock()

	metrics.WebsocketSessions.Inc()

	h.log.Info().Uint64("session_id", sess.id).Str("topic", topic).Int("topic_sessions", total).Msg("session subscribed")
	return sess
}

// Unsubscribe removes a session and closes its channel. Safe to call for
// sessions the hub already dropped.
func (h *Hub) Unsubscribe(sess *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sess, "unsubscribed")
}

// Publish delivers ev to every session currently subscribed on topic and
// forwards it to the bridge when one is attached.
func (h *Hub) Publish(topic string, ev Event) {
	metrics.BroadcastEventsTotal.WithLabelValues(string(ev.Type)).Inc()
	h.deliver(topic, ev)
	if h.bridge != nil {
		h.bridge.forward(topic, ev)
	}
}

// deliver fans out to local sessions only. The bridge uses it for events
// originating on other instances.
func (h *Hub) deliver(topic string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sess := range h.topics[topic] {
		select {
		case sess.send <- ev:
		default:
			// Buffer full: the session is too slow to keep up. Drop it;
			// the reconciliation layer recovers via snapshot resync.
			h.dropped.Add(1)
			h.remove(sess, "send buffer overflow")
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(sess *Session, reason string) {
	sessions, ok := h.topics[sess.topic]
	if !ok {
		return
	}
	if _, ok := sessions[sess]; !ok {
		return
	}
	delete(sessions, sess)
	close(sess.send)
	metrics.WebsocketSessions.Dec()
	h.log.Info().Uint64("session_id", sess.id).Str("topic", sess.topic).Str("reason", reason).Msg("session removed")
}

// SessionCount returns the number of sessions subscribed on topic.
func (h *Hub) SessionCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// DroppedSessions returns how many sessions were evicted for falling
// behind since the hub started.
func (h *Hub) DroppedSessions() uint64 { return h.dropped.Load() }

// PublishPosition implements ports.Broadcaster on the shared topic.
func (h *Hub) PublishPosition(update ports.PositionUpdate) {
	metrics.ReportsIngestedTotal.WithLabelValues(string(update.Status)).Inc()
	h.Publish(TopicGlobal, Event{Type: EventPositionUpdate, Position: &update})
}

// PublishAlert implements ports.Broadcaster on the shared topic.
func (h *Hub) PublishAlert(alert *domain.Alert) {
	metrics.AlertsCreatedTotal.WithLabelValues(string(alert.Type), string(alert.Severity)).Inc()
	h.Publish(TopicGlobal, Event{Type: EventAlertCreated, Alert: alert})
}
