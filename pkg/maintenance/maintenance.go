// Package maintenance runs the periodic stats reporter. Card state
// records are never deleted, so maintenance is strictly observational:
// it logs store and queue health on a cron schedule.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"cardrelay/pkg/ingest"
	"cardrelay/pkg/logger"
	"cardrelay/pkg/store"
)

// Start launches the reporter if enabled. Returns a cancel func.
func Start(ctx context.Context, enabled bool, cronExpr string, q *ingest.Queue) (context.CancelFunc, error) {
	if !enabled {
		logger.Info("maintenance_disabled")
		return func() {}, nil
	}

	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("maintenance_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid maintenance cron expression: %s", cronExpr)
	}

	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, q)
	logger.Info("maintenance_scheduler_started", "cron", cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick for the cron expression and
// sleeps until then, reporting once per tick.
func runScheduler(ctx context.Context, cronExpr string, q *ingest.Queue) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("maintenance_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("maintenance_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			reportOnce(q)
		case <-ctx.Done():
			logger.Info("maintenance_scheduler_stopping")
			return
		}
	}
}

func reportOnce(q *ingest.Queue) {
	logger.Info("maintenance_report",
		"store_ready", store.Ready(),
		"store_bytes", store.DiskUsage(),
		"queue_len", q.Len(),
		"queue_cap", q.Cap(),
		"queue_dropped", q.Dropped(),
	)
}
