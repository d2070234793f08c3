package services

import (
	"context"

	"github.com/google/uuid"

	redisclient "github.com/quantumexchange8/bankofgold/internal/clients/redis"
	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/sse"
	"github.com/quantumexchange8/bankofgold/internal/types"
)

type ImportNotifier interface {
	ImportQueued(userID uuid.UUID, run *types.ImportRun)
	ImportProgress(userID uuid.UUID, run *types.ImportRun, stage string, progress int, message string)
	ImportCompleted(userID uuid.UUID, run *types.ImportRun)
	ImportFailed(userID uuid.UUID, run *types.ImportRun, stage string, errorMessage string)
}

// importNotifier publishes through the redis bus when one is configured so
// events reach every instance; the bus forwarder then feeds the local hub.
// Without a bus it broadcasts straight into the hub.
type importNotifier struct {
	log *logger.Logger
	hub *sse.SSEHub
	bus redisclient.SSEBus
}

func NewImportNotifier(baseLog *logger.Logger, hub *sse.SSEHub, bus redisclient.SSEBus) ImportNotifier {
	return &importNotifier{
		log: baseLog.With("service", "ImportNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *importNotifier) publish(msg sse.SSEMessage) {
	if n.bus != nil {
		if err := n.bus.Publish(context.Background(), msg); err != nil {
			n.log.Warn("Failed to publish import event", "event", msg.Event, "error", err)
		}
		return
	}
	n.hub.Broadcast(msg)
}

func (n *importNotifier) ImportQueued(userID uuid.UUID, run *types.ImportRun) {
	n.publish(sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventImportQueued,
		Data:    map[string]any{"import": run},
	})
}

func (n *importNotifier) ImportProgress(userID uuid.UUID, run *types.ImportRun, stage string, progress int, message string) {
	n.publish(sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventImportProgress,
		Data: map[string]any{
			"import_id": run.ID,
			"stage":     stage,
			"progress":  progress,
			"message":   message,
		},
	})
}

func (n *importNotifier) ImportCompleted(userID uuid.UUID, run *types.ImportRun) {
	n.publish(sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventImportCompleted,
		Data:    map[string]any{"import": run},
	})
}

func (n *importNotifier) ImportFailed(userID uuid.UUID, run *types.ImportRun, stage string, errorMessage string) {
	n.publish(sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventImportFailed,
		Data: map[string]any{
			"import_id": run.ID,
			"stage":     stage,
			"error":     errorMessage,
		},
	})
}
