package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/quantumexchange8/bankofgold/internal/logger"
)

func newTestHub(t *testing.T) *SSEHub {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewSSEHub(log)
}

func TestHub_BroadcastReachesSubscribedChannelOnly(t *testing.T) {
	hub := newTestHub(t)
	userA := uuid.New()
	userB := uuid.New()

	clientA := hub.NewSSEClient(userA)
	clientB := hub.NewSSEClient(userB)
	hub.AddChannel(clientA, userA.String())
	hub.AddChannel(clientB, userB.String())

	hub.Broadcast(SSEMessage{Channel: userA.String(), Event: SSEEventImportCompleted})

	select {
	case msg := <-clientA.Outbound:
		if msg.Event != SSEEventImportCompleted {
			t.Fatalf("event = %s, want ImportCompleted", msg.Event)
		}
	default:
		t.Fatal("subscribed client should receive the message")
	}
	select {
	case msg := <-clientB.Outbound:
		t.Fatalf("other user's client should not receive %v", msg)
	default:
	}
}

func TestHub_RemoveClientStopsDelivery(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()
	client := hub.NewSSEClient(userID)
	hub.AddChannel(client, userID.String())
	hub.RemoveClient(client)

	hub.Broadcast(SSEMessage{Channel: userID.String(), Event: SSEEventImportProgress})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("removed client should not receive %v", msg)
	default:
	}
}

func TestHub_BroadcastWithoutChannelIsNoop(t *testing.T) {
	hub := newTestHub(t)
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "")
	hub.Broadcast(SSEMessage{Event: SSEEventImportQueued})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("unexpected delivery %v", msg)
	default:
	}
}
