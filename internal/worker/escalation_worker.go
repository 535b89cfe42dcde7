package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/service"
)

// EscalationWorker drives the periodic escalation scan.
type EscalationWorker struct {
	escalations *service.EscalationService
	interval    time.Duration
	batchLimit  int
	logger      *zap.Logger
}

// NewEscalationWorker constructs the worker.
func NewEscalationWorker(escalations *service.EscalationService, interval time.Duration, batchLimit int, logger *zap.Logger) *EscalationWorker {
	return &EscalationWorker{
		escalations: escalations,
		interval:    interval,
		batchLimit:  batchLimit,
		logger:      logger,
	}
}

// Run scans on every tick until the context is cancelled. Each pass runs
// under a deadline of one interval so a slow batch cannot pile up behind the
// next tick.
func (w *EscalationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("escalation worker started",
		zap.Duration("interval", w.interval), zap.Int("batch_limit", w.batchLimit))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("escalation worker stopped")
			return
		case <-ticker.C:
			w.scanOnce(ctx)
		}
	}
}

func (w *EscalationWorker) scanOnce(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	result, err := w.escalations.Scan(scanCtx, w.batchLimit)
	if err != nil {
		w.logger.Error("escalation scan failed", zap.Error(err))
		return
	}
	w.logger.Info("escalation scan complete",
		zap.Int("processed", result.Processed),
		zap.Int("escalated", result.Escalated),
		zap.Int("errors", result.Errors))
}
