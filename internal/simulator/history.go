package simulator

import (
	"context"
	"time"

	"coupler-sim/internal/model"
	"coupler-sim/pkg/history"
)

const historyQueueSize = 1000

// EnableHistory attaches a history client; every channel write from this
// point on is enqueued as a best-effort audit event, following the
// teacher's Storage.Handle bounded-queue pattern (internal/collector/
// storage.go): writes never block the Modbus hot path, and an event is
// dropped at once if the queue is full.
func (s *Simulator) EnableHistory(client *history.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = client
	s.historyQueue = make(chan history.Event, historyQueueSize)
	go s.drainHistory()
}

// DisableHistory stops accepting new events and closes the queue; it does
// not close the underlying client (callers own that lifecycle).
func (s *Simulator) DisableHistory() {
	s.mu.Lock()
	q := s.historyQueue
	s.history = nil
	s.historyQueue = nil
	s.mu.Unlock()
	if q != nil {
		close(q)
	}
}

func (s *Simulator) drainHistory() {
	s.mu.Lock()
	q := s.historyQueue
	s.mu.Unlock()
	for ev := range q {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = s.history.Record(ctx, ev)
		cancel()
	}
}

// recordHistoryLocked enqueues a write event; callers must hold s.mu.
// Best-effort: a full queue drops the event rather than blocking the
// caller, which may itself be holding s.mu.
func (s *Simulator) recordHistoryLocked(ref model.ChannelRef, value float64, source model.SourceTag, behaviorID string) {
	if s.historyQueue == nil {
		return
	}
	ev := history.Event{
		ModulePosition: ref.ModulePosition,
		Channel:        ref.Channel,
		SourceTag:      string(source),
		Value:          value,
		BehaviorID:     behaviorID,
	}
	select {
	case s.historyQueue <- ev:
	default:
	}
}
