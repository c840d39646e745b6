package report

import (
	"context"

	"rollbook/internal/attendance"
	"rollbook/internal/metrics"
	"rollbook/internal/queue"
)

// EventHandler invalidates cached reports for each attendance.marked
// message. Other message types are counted and skipped.
func EventHandler(inv Invalidator) queue.Handler {
	return func(ctx context.Context, msg queue.Message) error {
		if msg.Type != attendance.EventMarked {
			metrics.EventsConsumed.WithLabelValues(msg.Type, "ignored").Inc()
			return nil
		}
		e, err := attendance.DecodeMarked(msg)
		if err != nil {
			metrics.EventsConsumed.WithLabelValues(msg.Type, "malformed").Inc()
			return err
		}
		if err := inv.Invalidate(ctx, e); err != nil {
			metrics.EventsConsumed.WithLabelValues(msg.Type, "error").Inc()
			return err
		}
		metrics.EventsConsumed.WithLabelValues(msg.Type, "ok").Inc()
		return nil
	}
}
