package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// FrozenRemainingMinutes is the sentinel remaining-minutes value reported
// while a tracker's clock is stopped. It means "not counting", not
// "compliant"; callers must not mistake a paused ticket for a healthy one.
const FrozenRemainingMinutes = float64(1 << 30)

// StatusReport is the outcome of a point-in-time SLA status check.
type StatusReport struct {
	Frozen                        bool
	FirstResponseBreached         bool
	ResolutionBreached            bool
	FirstResponseRemainingMinutes float64
	ResolutionRemainingMinutes    float64
	FirstResponsePercentage       float64
	ResolutionPercentage          float64
}

// CheckStatus computes breach flags, remaining minutes, and percentage of
// budget consumed as of now. While the ledger has an open pause the tracker
// is frozen: breaches report false, remaining minutes report the sentinel,
// and percentages report 0. Without a policy the zero report is returned.
func CheckStatus(t *domain.SLATracker, now time.Time) StatusReport {
	if !t.HasPolicy() {
		return StatusReport{}
	}
	now = now.UTC()

	if t.IsPaused() {
		return StatusReport{
			Frozen:                        true,
			FirstResponseRemainingMinutes: FrozenRemainingMinutes,
			ResolutionRemainingMinutes:    FrozenRemainingMinutes,
		}
	}

	elapsed := now.Sub(t.CreatedAt.UTC()).Minutes() - CumulativePausedMinutes(t.PausePeriods, now, t.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	report := StatusReport{
		FirstResponseRemainingMinutes: t.FirstResponseDueAt.UTC().Sub(now).Minutes(),
		ResolutionRemainingMinutes:    t.ResolutionDueAt.UTC().Sub(now).Minutes(),
		FirstResponsePercentage:       budgetPercentage(elapsed, t.Policy.FirstResponseHours),
		ResolutionPercentage:          budgetPercentage(elapsed, t.Policy.ResolutionHours),
	}
	report.FirstResponseBreached = report.FirstResponseRemainingMinutes <= 0
	report.ResolutionBreached = report.ResolutionRemainingMinutes <= 0
	return report
}

// PercentageConsumed returns the unclamped share of the resolution budget
// consumed as of now, for escalation threshold evaluation (levels past 100%
// need the raw value the clamped report cannot carry). ok is false when the
// percentage cannot be computed: no policy, zero budget, or a frozen clock.
func PercentageConsumed(t *domain.SLATracker, now time.Time) (float64, bool) {
	if !t.HasPolicy() || t.Policy.ResolutionHours <= 0 || t.IsPaused() {
		return 0, false
	}
	now = now.UTC()
	elapsed := now.Sub(t.CreatedAt.UTC()).Minutes() - CumulativePausedMinutes(t.PausePeriods, now, t.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed / (t.Policy.ResolutionHours * 60) * 100, true
}

// ProcessFirstResponse records whether the first response landed in time.
// The flag is decided exactly once; later calls are no-ops.
func ProcessFirstResponse(t *domain.SLATracker, now time.Time) {
	if !t.HasPolicy() || t.FirstResponseMet != nil {
		return
	}
	met := !now.UTC().After(t.FirstResponseDueAt.UTC())
	t.FirstResponseMet = &met
}

// ProcessNextResponse records the outcome of the current next-response
// window, once per window. ResetNextResponseWindow re-arms it.
func ProcessNextResponse(t *domain.SLATracker, now time.Time) {
	if !t.HasPolicy() || t.NextResponseMet != nil || t.NextResponseDueAt == nil {
		return
	}
	met := !now.UTC().After(t.NextResponseDueAt.UTC())
	t.NextResponseMet = &met
}

// ProcessResolution records whether the ticket was resolved in time, once.
func ProcessResolution(t *domain.SLATracker, now time.Time) {
	if !t.HasPolicy() || t.ResolutionMet != nil {
		return
	}
	met := !now.UTC().After(t.ResolutionDueAt.UTC())
	t.ResolutionMet = &met
}

// ResetNextResponseWindow restarts the next-response clock from now (not from
// ticket creation) and clears the window's met flag. Called whenever the
// customer supplies new input.
func ResetNextResponseWindow(t *domain.SLATracker, now time.Time, cal domain.BusinessCalendar) error {
	if !t.HasPolicy() || t.Policy.NextResponseHours == nil {
		return nil
	}
	due, err := addDuration(now.UTC(), *t.Policy.NextResponseHours, t.Policy.BusinessHoursOnly, cal)
	if err != nil {
		return err
	}
	t.NextResponseDueAt = &due
	t.NextResponseMet = nil
	return nil
}

// Pause suspends the tracker's SLA clock. Idempotent while already paused.
func Pause(t *domain.SLATracker, now time.Time) {
	if !t.HasPolicy() {
		return
	}
	t.PausePeriods = OpenPause(t.PausePeriods, now)
}

// Resume terminates the open pause and pushes every not-yet-met due date
// forward by the exact duration of the pause just ended, converted to its
// business-duration equivalent when the policy counts business hours only.
// Paused time therefore never counts against the SLA. Resuming a tracker
// with no open pause is a no-op.
func Resume(t *domain.SLATracker, now time.Time, cal domain.BusinessCalendar) error {
	if !t.HasPolicy() {
		return nil
	}
	periods, pausedMinutes := ClosePause(t.PausePeriods, now)
	t.PausePeriods = periods
	if pausedMinutes <= 0 {
		return nil
	}

	extensionHours := pausedMinutes / 60
	if t.Policy.BusinessHoursOnly {
		closed, ok := LastClosedPause(t.PausePeriods)
		if !ok {
			return nil
		}
		extensionHours = BusinessMinutesBetween(closed.StartedAt, *closed.EndedAt, cal) / 60
	}
	if extensionHours <= 0 {
		return nil
	}
	return extendUnmetDueDates(t, extensionHours, cal)
}

func extendUnmetDueDates(t *domain.SLATracker, hours float64, cal domain.BusinessCalendar) error {
	if t.FirstResponseMet == nil {
		due, err := addDuration(t.FirstResponseDueAt, hours, t.Policy.BusinessHoursOnly, cal)
		if err != nil {
			return err
		}
		t.FirstResponseDueAt = due
	}
	if t.NextResponseMet == nil && t.NextResponseDueAt != nil {
		due, err := addDuration(*t.NextResponseDueAt, hours, t.Policy.BusinessHoursOnly, cal)
		if err != nil {
			return err
		}
		t.NextResponseDueAt = &due
	}
	if t.ResolutionMet == nil {
		due, err := addDuration(t.ResolutionDueAt, hours, t.Policy.BusinessHoursOnly, cal)
		if err != nil {
			return err
		}
		t.ResolutionDueAt = due
	}
	return nil
}

func addDuration(start time.Time, hours float64, businessOnly bool, cal domain.BusinessCalendar) (time.Time, error) {
	if businessOnly {
		return AddBusinessDuration(start, hours, cal)
	}
	return AddWallClockDuration(start, hours), nil
}

func budgetPercentage(elapsedMinutes, budgetHours float64) float64 {
	budget := budgetHours * 60
	if budget <= 0 {
		if elapsedMinutes > 0 {
			return 100
		}
		return 0
	}
	pct := elapsedMinutes / budget * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
