package service

import (
	"log/slog"
	"time"

	"StagePasswebserver/internal/domain"
)

// IsInQuietHours reports whether nowUTC falls inside the user's quiet-hours
// window. The comparison happens in the user's own wall-clock time: the
// stored IANA timezone is resolved first, falling back to UTC with a warning
// when the id is unrecognized. Membership is start-inclusive, end-exclusive;
// start > end means the window wraps midnight. Quiet hours exist only when
// both bounds are set.
func IsInQuietHours(p domain.NotificationPreference, nowUTC time.Time, logger *slog.Logger) bool {
	if p.QuietHoursStart == nil || p.QuietHoursEnd == nil {
		return false
	}

	loc := time.UTC
	if p.TimeZoneID != "" {
		l, err := time.LoadLocation(p.TimeZoneID)
		if err != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("quiet hours: unknown timezone, falling back to UTC", "timezone_id", p.TimeZoneID, "user_id", p.UserID)
		} else {
			loc = l
		}
	}

	local := nowUTC.In(loc)
	now := local.Hour()*60 + local.Minute()
	start := p.QuietHoursStart.Minutes()
	end := p.QuietHoursEnd.Minutes()

	if start > end {
		return now >= start || now < end
	}
	return now >= start && now < end
}
