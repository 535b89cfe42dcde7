package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// CalendarRepository loads an organization's business calendar with its
// windows and holidays assembled.
type CalendarRepository interface {
	GetByOrganization(ctx context.Context, orgID string) (*domain.BusinessCalendar, error)
}

type calendarRepository struct {
	pool *pgxpool.Pool
}

// NewCalendarRepository instantiates repository.
func NewCalendarRepository(pool *pgxpool.Pool) CalendarRepository {
	return &calendarRepository{pool: pool}
}

func (r *calendarRepository) GetByOrganization(ctx context.Context, orgID string) (*domain.BusinessCalendar, error) {
	const calendarQuery = `
        SELECT id, organization_id, name FROM business_calendars WHERE organization_id=$1`
	var cal domain.BusinessCalendar
	if err := r.pool.QueryRow(ctx, calendarQuery, orgID).Scan(&cal.ID, &cal.OrganizationID, &cal.Name); err != nil {
		return nil, err
	}

	const windowsQuery = `
        SELECT weekday, start_minute, end_minute
        FROM business_calendar_windows WHERE calendar_id=$1
        ORDER BY weekday, start_minute`
	rows, err := r.pool.Query(ctx, windowsQuery, cal.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var weekday int
		var w domain.WeeklyWindow
		if err := rows.Scan(&weekday, &w.StartMinute, &w.EndMinute); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekday)
		cal.Windows = append(cal.Windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const holidaysQuery = `
        SELECT holiday_date FROM business_calendar_holidays WHERE calendar_id=$1 ORDER BY holiday_date`
	hrows, err := r.pool.Query(ctx, holidaysQuery, cal.ID)
	if err != nil {
		return nil, err
	}
	defer hrows.Close()
	for hrows.Next() {
		var day time.Time
		if err := hrows.Scan(&day); err != nil {
			return nil, err
		}
		cal.Holidays = append(cal.Holidays, day)
	}
	return &cal, hrows.Err()
}
