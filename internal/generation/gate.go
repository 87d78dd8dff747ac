package generation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// SegmentGate allows at most one in-flight generation per segment. A
// segment's active revision pointer is a single mutable slot, so a second
// concurrent request must queue behind or be rejected, never run alongside.
type SegmentGate struct {
	mu   sync.Mutex
	sems map[uuid.UUID]*semaphore.Weighted
}

func NewSegmentGate() *SegmentGate {
	return &SegmentGate{sems: make(map[uuid.UUID]*semaphore.Weighted)}
}

func (g *SegmentGate) sem(segmentID uuid.UUID) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sems[segmentID]
	if !ok {
		s = semaphore.NewWeighted(1)
		g.sems[segmentID] = s
	}
	return s
}

// TryAcquire reports whether the segment slot was free; callers that do not
// want to wait reject with SegmentBusy when it returns false.
func (g *SegmentGate) TryAcquire(segmentID uuid.UUID) bool {
	return g.sem(segmentID).TryAcquire(1)
}

// Acquire queues behind the current in-flight request.
func (g *SegmentGate) Acquire(ctx context.Context, segmentID uuid.UUID) error {
	return g.sem(segmentID).Acquire(ctx, 1)
}

func (g *SegmentGate) Release(segmentID uuid.UUID) {
	g.sem(segmentID).Release(1)
}
