package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// OpenPause appends a new open pause period at the given instant. If the
// ledger already has an open period the call is a no-op, so repeated pause
// signals cannot double-count.
func OpenPause(periods []domain.PausePeriod, at time.Time) []domain.PausePeriod {
	if openIndex(periods) >= 0 {
		return periods
	}
	return append(periods, domain.PausePeriod{StartedAt: at.UTC()})
}

// ClosePause terminates the open pause period, clamping the end to be no
// earlier than the start, and returns the updated ledger together with the
// minutes of the interval just ended. With no open period it is a no-op
// returning 0.
func ClosePause(periods []domain.PausePeriod, at time.Time) ([]domain.PausePeriod, float64) {
	idx := openIndex(periods)
	if idx < 0 {
		return periods, 0
	}
	ended := at.UTC()
	if ended.Before(periods[idx].StartedAt) {
		ended = periods[idx].StartedAt
	}
	periods[idx].EndedAt = &ended
	return periods, ended.Sub(periods[idx].StartedAt).Minutes()
}

// CumulativePausedMinutes sums, over every period, the overlap with
// [notBefore, asOf] in minutes. An open period contributes its portion from
// max(StartedAt, notBefore) to asOf. Pauses straddling the observation window
// are clipped exactly; the result is never negative.
func CumulativePausedMinutes(periods []domain.PausePeriod, asOf, notBefore time.Time) float64 {
	asOf, notBefore = asOf.UTC(), notBefore.UTC()
	var total float64
	for _, p := range periods {
		start := p.StartedAt.UTC()
		if start.Before(notBefore) {
			start = notBefore
		}
		end := asOf
		if p.EndedAt != nil && p.EndedAt.UTC().Before(end) {
			end = p.EndedAt.UTC()
		}
		if end.After(start) {
			total += end.Sub(start).Minutes()
		}
	}
	return total
}

// LastClosedPause returns the most recently terminated period, or false when
// every period is still open or the ledger is empty.
func LastClosedPause(periods []domain.PausePeriod) (domain.PausePeriod, bool) {
	for i := len(periods) - 1; i >= 0; i-- {
		if !periods[i].Open() {
			return periods[i], true
		}
	}
	return domain.PausePeriod{}, false
}

func openIndex(periods []domain.PausePeriod) int {
	for i := len(periods) - 1; i >= 0; i-- {
		if periods[i].Open() {
			return i
		}
	}
	return -1
}
