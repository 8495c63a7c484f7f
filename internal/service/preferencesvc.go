package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"StagePasswebserver/internal/domain"
)

type PreferencesStore interface {
	GetPreferences(ctx context.Context, userID string) (domain.NotificationPreference, error)
	UpsertPreferences(ctx context.Context, p domain.NotificationPreference, when time.Time) (domain.NotificationPreference, error)
}

// PreferenceService owns per-user notification settings. A user without a
// stored row gets the documented defaults; the row is created lazily on the
// first update.
type PreferenceService struct {
	Prefs  PreferencesStore
	Logger *slog.Logger
	Now    func() time.Time
}

// PreferencePatch carries only the fields present in an update request. Nil
// means "leave the stored value alone". ClearQuietHours unsets both bounds;
// it wins over any bounds also present in the patch.
type PreferencePatch struct {
	PushEnabled            *bool
	EmailEnabled           *bool
	ScheduleChangesEnabled *bool
	RemindersEnabled       *bool
	AnnouncementsEnabled   *bool
	ReminderMinutesBefore  *int
	QuietHoursStart        *domain.TimeOfDay
	QuietHoursEnd          *domain.TimeOfDay
	ClearQuietHours        bool
	TimeZoneID             *string
}

func (s *PreferenceService) GetPreferences(ctx context.Context, userID string) (domain.NotificationPreference, error) {
	if s.Prefs == nil {
		return domain.NotificationPreference{}, errors.New("preferences unavailable")
	}
	p, err := s.Prefs.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultPreferences(userID), nil
		}
		return domain.NotificationPreference{}, err
	}
	return p, nil
}

// UpdatePreferences applies read-modify-write semantics: the stored row (or
// the defaults) is loaded, patched, and written back as a whole.
func (s *PreferenceService) UpdatePreferences(ctx context.Context, userID string, patch PreferencePatch) (domain.NotificationPreference, error) {
	if s.Prefs == nil {
		return domain.NotificationPreference{}, errors.New("preferences unavailable")
	}
	if err := validatePatch(patch); err != nil {
		return domain.NotificationPreference{}, err
	}

	current, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return domain.NotificationPreference{}, err
	}

	if patch.PushEnabled != nil {
		current.PushEnabled = *patch.PushEnabled
	}
	if patch.EmailEnabled != nil {
		current.EmailEnabled = *patch.EmailEnabled
	}
	if patch.ScheduleChangesEnabled != nil {
		current.ScheduleChangesEnabled = *patch.ScheduleChangesEnabled
	}
	if patch.RemindersEnabled != nil {
		current.RemindersEnabled = *patch.RemindersEnabled
	}
	if patch.AnnouncementsEnabled != nil {
		current.AnnouncementsEnabled = *patch.AnnouncementsEnabled
	}
	if patch.ReminderMinutesBefore != nil {
		current.ReminderMinutesBefore = *patch.ReminderMinutesBefore
	}
	if patch.QuietHoursStart != nil {
		v := *patch.QuietHoursStart
		current.QuietHoursStart = &v
	}
	if patch.QuietHoursEnd != nil {
		v := *patch.QuietHoursEnd
		current.QuietHoursEnd = &v
	}
	if patch.ClearQuietHours {
		current.QuietHoursStart = nil
		current.QuietHoursEnd = nil
	}
	if patch.TimeZoneID != nil {
		current.TimeZoneID = strings.TrimSpace(*patch.TimeZoneID)
	}
	current.UserID = userID

	if s.Now == nil {
		s.Now = time.Now
	}
	return s.Prefs.UpsertPreferences(ctx, current, s.Now().UTC().Truncate(time.Millisecond))
}

func validatePatch(patch PreferencePatch) error {
	fields := map[string]string{}
	if patch.ReminderMinutesBefore != nil {
		if m := *patch.ReminderMinutesBefore; m < 0 || m > 24*60 {
			fields["reminder_minutes_before"] = "must be between 0 and 1440"
		}
	}
	if patch.QuietHoursStart != nil && !validTimeOfDay(*patch.QuietHoursStart) {
		fields["quiet_hours_start"] = "must be a valid time of day"
	}
	if patch.QuietHoursEnd != nil && !validTimeOfDay(*patch.QuietHoursEnd) {
		fields["quiet_hours_end"] = "must be a valid time of day"
	}
	if patch.TimeZoneID != nil {
		tz := strings.TrimSpace(*patch.TimeZoneID)
		if tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				fields["timezone_id"] = "must be a valid IANA timezone"
			}
		}
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

func validTimeOfDay(t domain.TimeOfDay) bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}
