package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StagePasswebserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PreferencesStore struct {
	pool *pgxpool.Pool
}

func NewPreferencesStore(pool *pgxpool.Pool) *PreferencesStore {
	return &PreferencesStore{pool: pool}
}

const preferenceColumns = `id, user_id, push_enabled, email_enabled, schedule_changes_enabled,
			reminders_enabled, announcements_enabled, reminder_minutes_before,
			quiet_hours_start, quiet_hours_end, timezone_id, created_at, updated_at`

// GetPreferences returns the stored row or domain.ErrNotFound; the service
// layer substitutes the documented defaults.
func (s *PreferencesStore) GetPreferences(ctx context.Context, userID string) (domain.NotificationPreference, error) {
	const q = `
		SELECT ` + preferenceColumns + `
		FROM notification_preferences
		WHERE user_id = $1
	`

	row := s.pool.QueryRow(ctx, q, userID)
	out, err := scanPreference(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotificationPreference{}, domain.ErrNotFound
		}
		return domain.NotificationPreference{}, fmt.Errorf("get notification preferences: %w", err)
	}
	return out, nil
}

// UpsertPreferences writes the full preference row, creating it on first
// write. user_id is unique, so a user can never hold two rows.
func (s *PreferencesStore) UpsertPreferences(ctx context.Context, p domain.NotificationPreference, when time.Time) (domain.NotificationPreference, error) {
	const q = `
		INSERT INTO notification_preferences (
			user_id, push_enabled, email_enabled, schedule_changes_enabled,
			reminders_enabled, announcements_enabled, reminder_minutes_before,
			quiet_hours_start, quiet_hours_end, timezone_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (user_id)
		DO UPDATE SET
			push_enabled = EXCLUDED.push_enabled,
			email_enabled = EXCLUDED.email_enabled,
			schedule_changes_enabled = EXCLUDED.schedule_changes_enabled,
			reminders_enabled = EXCLUDED.reminders_enabled,
			announcements_enabled = EXCLUDED.announcements_enabled,
			reminder_minutes_before = EXCLUDED.reminder_minutes_before,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			timezone_id = EXCLUDED.timezone_id,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + preferenceColumns + `
	`

	row := s.pool.QueryRow(ctx, q,
		p.UserID,
		p.PushEnabled,
		p.EmailEnabled,
		p.ScheduleChangesEnabled,
		p.RemindersEnabled,
		p.AnnouncementsEnabled,
		p.ReminderMinutesBefore,
		minutesOrNil(p.QuietHoursStart),
		minutesOrNil(p.QuietHoursEnd),
		nullIfEmpty(p.TimeZoneID),
		when,
	)
	out, err := scanPreference(row)
	if err != nil {
		return domain.NotificationPreference{}, fmt.Errorf("upsert notification preferences: %w", err)
	}
	return out, nil
}

func scanPreference(row pgx.Row) (domain.NotificationPreference, error) {
	var (
		p        domain.NotificationPreference
		idUUID   pgtype.UUID
		userUUID pgtype.UUID
		qhStart  pgtype.Int2
		qhEnd    pgtype.Int2
		tz       pgtype.Text
	)
	err := row.Scan(
		&idUUID,
		&userUUID,
		&p.PushEnabled,
		&p.EmailEnabled,
		&p.ScheduleChangesEnabled,
		&p.RemindersEnabled,
		&p.AnnouncementsEnabled,
		&p.ReminderMinutesBefore,
		&qhStart,
		&qhEnd,
		&tz,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.NotificationPreference{}, err
	}
	p.ID = uuidOrEmpty(idUUID)
	p.UserID = uuidOrEmpty(userUUID)
	p.QuietHoursStart = timeOfDayPtr(qhStart)
	p.QuietHoursEnd = timeOfDayPtr(qhEnd)
	p.TimeZoneID = textOrEmpty(tz)
	return p, nil
}
