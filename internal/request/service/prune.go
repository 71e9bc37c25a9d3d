package service

import (
	"context"
	"time"

	"hemolink/internal/platform/events"
	"hemolink/internal/request/store"
	dErrors "hemolink/pkg/domain-errors"
)

// PruneStale deletes requests older than the configured horizon whose
// status is completed or rejected. Active requests are never auto-deleted
// regardless of age, and cancelled requests are retained.
//
// The operation is idempotent: pruning an already-pruned set deletes
// nothing. Callers trigger it opportunistically (after a list fetch);
// nothing here schedules background work.
func (s *Service) PruneStale(ctx context.Context) (int, error) {
	requests, err := s.requests.List(ctx, store.Filter{})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests for pruning")
	}

	now := time.Now()
	pruned := 0
	for _, req := range requests {
		if !req.StaleAndTerminal(now, s.pruneMaxAge) {
			continue
		}
		if err := s.requests.Delete(ctx, req.ID); err != nil {
			// Keep going; the next prune pass picks up what this one missed.
			s.logWarn(ctx, "failed to prune stale request",
				"request_id", req.ID.String(), "error", err.Error())
			continue
		}
		pruned++
		// The request row is gone; orphaned notifications for it are noise.
		if err := s.notifications.DeleteByRequest(ctx, req.ID); err != nil {
			s.logWarn(ctx, "failed to prune notifications for deleted request",
				"request_id", req.ID.String(), "error", err.Error())
		}
		s.emit(events.Event{
			Kind:      events.KindRequestPruned,
			RequestID: req.ID,
			Detail:    req.Status.String(),
		})
	}

	if pruned > 0 {
		if s.metrics != nil {
			s.metrics.RequestsPruned.Add(float64(pruned))
		}
		s.logInfo(ctx, "pruned stale terminal requests", "count", pruned)
	}
	return pruned, nil
}
