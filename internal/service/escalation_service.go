package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
)

const percentageCachePrefix = "sla:pct:"

// EscalationService re-evaluates open trackers against the escalation
// thresholds and emits action events for external collaborators.
type EscalationService struct {
	trackers   repository.TrackerRepository
	cache      *persistence.Redis
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	thresholds sla.Thresholds
	cacheTTL   time.Duration
}

// EscalationDependencies bundles collaborators for the escalation service.
type EscalationDependencies struct {
	TrackerRepo repository.TrackerRepository
	Cache       *persistence.Redis
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Thresholds  sla.Thresholds
	CacheTTL    time.Duration
}

// ScanResult summarizes one escalation pass.
type ScanResult struct {
	Processed int `json:"processed"`
	Escalated int `json:"escalated"`
	Errors    int `json:"errors"`
}

// NewEscalationService constructs the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		trackers:   deps.TrackerRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		thresholds: deps.Thresholds,
		cacheTTL:   deps.CacheTTL,
	}
}

// Scan iterates unresolved trackers up to batchLimit, computes the share of
// resolution budget consumed, and publishes the single highest matching
// level's action set for any tracker at level 1 or above. Trackers whose
// percentage cannot be computed are skipped; per-item failures are counted
// and never abort the rest of the batch. The context is checked between
// trackers so a caller-imposed deadline cuts the pass short cleanly.
func (s *EscalationService) Scan(ctx context.Context, batchLimit int) (ScanResult, error) {
	var result ScanResult

	trackers, err := s.trackers.ListUnresolved(ctx, batchLimit)
	if err != nil {
		return result, err
	}

	now := time.Now().UTC()
	for i := range trackers {
		if err := ctx.Err(); err != nil {
			s.metrics.RecordScan(result.Processed, result.Escalated, result.Errors)
			return result, err
		}
		tracker := &trackers[i]
		result.Processed++

		pct, ok := s.percentage(ctx, tracker, now)
		if !ok {
			continue
		}

		level := s.thresholds.LevelFor(pct)
		if level == sla.LevelNone {
			continue
		}

		if err := s.dispatcher.Publish(ctx, events.Event{
			Type:     events.EventSLAEscalated,
			TicketID: tracker.TicketID,
			Payload: events.SLAEscalatedPayload{
				Level:      level,
				Percentage: pct,
				Actions:    sla.ActionsForLevel(level),
			},
		}); err != nil {
			result.Errors++
			s.logger.Warn("escalation dispatch failed",
				zap.String("ticket_id", tracker.TicketID), zap.Error(err))
			continue
		}
		result.Escalated++
	}

	s.metrics.RecordScan(result.Processed, result.Escalated, result.Errors)
	return result, nil
}

// percentage reads the cached percentage when fresh, otherwise recomputes and
// caches it. A cache failure degrades to recomputation. Frozen trackers and
// trackers without a usable budget report ok=false.
func (s *EscalationService) percentage(ctx context.Context, tracker *domain.SLATracker, now time.Time) (float64, bool) {
	key := percentageCachePrefix + tracker.TicketID
	if raw, hit := s.cache.GetString(ctx, key); hit {
		if pct, err := strconv.ParseFloat(raw, 64); err == nil {
			return pct, true
		}
	}

	pct, ok := sla.PercentageConsumed(tracker, now)
	if !ok {
		return 0, false
	}
	s.cache.SetString(ctx, key, strconv.FormatFloat(pct, 'f', 4, 64), s.cacheTTL)
	return pct, true
}
