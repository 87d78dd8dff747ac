package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/XrOne/studio-jenial-sub004/internal/clients/redis"
	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/sse"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

// RevisionNotifier pushes lifecycle transitions to project subscribers.
// Every event carries the revision so clients never have to re-fetch to
// render a status change.
type RevisionNotifier interface {
	RevisionQueued(projectID uuid.UUID, rev *types.Revision)
	RevisionRunning(projectID uuid.UUID, rev *types.Revision)
	RevisionSucceeded(projectID uuid.UUID, rev *types.Revision)
	RevisionFailed(projectID uuid.UUID, rev *types.Revision)
	SegmentActivated(projectID, segmentID, revisionID uuid.UUID)
	BatchItemDone(projectID, revisionID uuid.UUID, label string, ok bool)
}

type revisionNotifier struct {
	log *logger.Logger
	hub *sse.SSEHub
	bus redis.SSEBus
}

// NewRevisionNotifier builds a notifier. bus may be nil; events then stay on
// the local hub. When a bus is configured events go through it and return to
// every instance's hub via the forwarder, so they are never also broadcast
// locally here.
func NewRevisionNotifier(log *logger.Logger, hub *sse.SSEHub, bus redis.SSEBus) RevisionNotifier {
	return &revisionNotifier{
		log: log.With("service", "RevisionNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *revisionNotifier) emit(msg sse.SSEMessage) {
	if n.bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.bus.Publish(ctx, msg); err != nil {
			n.log.Warn("SSE bus publish failed, falling back to local hub", "error", err)
			n.hub.Broadcast(msg)
		}
		return
	}
	n.hub.Broadcast(msg)
}

func (n *revisionNotifier) revisionEvent(projectID uuid.UUID, event sse.SSEEvent, rev *types.Revision) {
	n.emit(sse.SSEMessage{
		Channel: sse.ProjectChannel(projectID),
		Event:   event,
		Data: map[string]any{
			"revision_id": rev.ID,
			"segment_id":  rev.SegmentID,
			"status":      rev.Status,
			"revision":    rev,
		},
	})
}

func (n *revisionNotifier) RevisionQueued(projectID uuid.UUID, rev *types.Revision) {
	n.revisionEvent(projectID, sse.SSEEventRevisionQueued, rev)
}

func (n *revisionNotifier) RevisionRunning(projectID uuid.UUID, rev *types.Revision) {
	n.revisionEvent(projectID, sse.SSEEventRevisionRunning, rev)
}

func (n *revisionNotifier) RevisionSucceeded(projectID uuid.UUID, rev *types.Revision) {
	n.revisionEvent(projectID, sse.SSEEventRevisionSucceeded, rev)
}

func (n *revisionNotifier) RevisionFailed(projectID uuid.UUID, rev *types.Revision) {
	n.revisionEvent(projectID, sse.SSEEventRevisionFailed, rev)
}

func (n *revisionNotifier) SegmentActivated(projectID, segmentID, revisionID uuid.UUID) {
	n.emit(sse.SSEMessage{
		Channel: sse.ProjectChannel(projectID),
		Event:   sse.SSEEventSegmentActivated,
		Data: map[string]any{
			"segment_id":  segmentID,
			"revision_id": revisionID,
		},
	})
}

func (n *revisionNotifier) BatchItemDone(projectID, revisionID uuid.UUID, label string, ok bool) {
	n.emit(sse.SSEMessage{
		Channel: sse.ProjectChannel(projectID),
		Event:   sse.SSEEventBatchItemDone,
		Data: map[string]any{
			"revision_id": revisionID,
			"label":       label,
			"ok":          ok,
		},
	})
}
