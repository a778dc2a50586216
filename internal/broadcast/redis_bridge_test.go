package broadcast

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

func TestBridge_ForwardQueuesEnvelope(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	bridge := NewBridge(nil, hub, "", zerolog.Nop())

	hub.Publish(TopicGlobal, positionEvent("SHP-1"))

	select {
	case env := <-bridge.out:
		if env.Origin != bridge.instanceID {
			t.Fatalf("envelope must carry the origin instance id, got %q", env.Origin)
		}
		if env.Topic != TopicGlobal {
			t.Fatalf("envelope must carry the topic, got %q", env.Topic)
		}
		if env.Event.Type != EventPositionUpdate || env.Event.Position.ShipmentID != "SHP-1" {
			t.Fatalf("unexpected forwarded event: %+v", env.Event)
		}
	default:
		t.Fatalf("publish must hand the event to the forward queue")
	}
}

func TestBridge_PublishNeverWaitsOnTheBridge(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	// Publish loop deliberately not running: the forward queue fills and
	// then overflows, the worst case a dead Redis produces.
	NewBridge(nil, hub, "", zerolog.Nop())

	sess := hub.Subscribe(TopicGlobal)
	defer hub.Unsubscribe(sess)

	start := time.Now()
	for i := 0; i < forwardBuffer*2; i++ {
		hub.PublishPosition(ports.PositionUpdate{ShipmentID: "SHP-1", Status: domain.StatusInTransit})
		// Keep the local session drained so only the bridge queue fills.
		select {
		case <-sess.C():
		default:
		}
	}
	elapsed := time.Since(start)

	// Channel sends and drops, no I/O: far under a second even on a
	// loaded runner.
	if elapsed > time.Second {
		t.Fatalf("publishing with a stalled bridge took %v", elapsed)
	}
	if hub.SessionCount(TopicGlobal) != 1 {
		t.Fatalf("local delivery must be unaffected by the bridge, count=%d", hub.SessionCount(TopicGlobal))
	}
}

func TestBridge_ForwardDropsOnOverflow(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	bridge := NewBridge(nil, hub, "", zerolog.Nop())

	for i := 0; i < forwardBuffer+10; i++ {
		bridge.forward(TopicGlobal, positionEvent("SHP-1"))
	}

	if got := len(bridge.out); got != forwardBuffer {
		t.Fatalf("forward queue must stay bounded at %d, got %d", forwardBuffer, got)
	}
}
