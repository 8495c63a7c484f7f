package domain

import "time"

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

type NotificationType string

const (
	NotificationTypeScheduleChange NotificationType = "schedule_change"
	NotificationTypeReminder       NotificationType = "reminder"
	NotificationTypeAnnouncement   NotificationType = "announcement"
)

type ScheduleChangeType string

const (
	ChangeSchedulePublished   ScheduleChangeType = "schedule_published"
	ChangeTimeChanged         ScheduleChangeType = "time_changed"
	ChangeEngagementCancelled ScheduleChangeType = "engagement_cancelled"
	ChangeStageChanged        ScheduleChangeType = "stage_changed"
)

// DeviceToken is one installed app instance owned by a user. The token value is
// the push-delivery address and is globally unique; re-presenting a token moves
// the row to the new owner rather than creating a duplicate.
type DeviceToken struct {
	ID         string
	UserID     string
	Token      string
	Platform   Platform
	DeviceName string
	IsActive   bool
	LastUsedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NotificationPreference holds per-user delivery settings. At most one row per
// user exists; a missing row means DefaultPreferences.
type NotificationPreference struct {
	ID                     string
	UserID                 string
	PushEnabled            bool
	EmailEnabled           bool
	ScheduleChangesEnabled bool
	RemindersEnabled       bool
	AnnouncementsEnabled   bool
	ReminderMinutesBefore  int
	QuietHoursStart        *TimeOfDay
	QuietHoursEnd          *TimeOfDay
	TimeZoneID             string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// DefaultPreferences is what a user gets before their first preference write:
// push on, every type on, no quiet hours.
func DefaultPreferences(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:                 userID,
		PushEnabled:            true,
		EmailEnabled:           true,
		ScheduleChangesEnabled: true,
		RemindersEnabled:       true,
		AnnouncementsEnabled:   true,
		ReminderMinutesBefore:  30,
	}
}

// EnabledFor reports whether the given notification type is switched on.
func (p NotificationPreference) EnabledFor(t NotificationType) bool {
	switch t {
	case NotificationTypeScheduleChange:
		return p.ScheduleChangesEnabled
	case NotificationTypeReminder:
		return p.RemindersEnabled
	case NotificationTypeAnnouncement:
		return p.AnnouncementsEnabled
	}
	return false
}

// TimeOfDay is a wall-clock time with no date or zone attached.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// NotificationLog records one delivery attempt to one device, and doubles as
// the attendee's inbox entry. Rows are written only after an attempt was made.
type NotificationLog struct {
	ID                string
	UserID            string
	DeviceTokenID     string
	Type              NotificationType
	Title             string
	Body              string
	DataPayload       string
	RelatedEntityType string
	RelatedEntityID   string
	SentAt            time.Time
	IsDelivered       bool
	ErrorMessage      string
	ReadAt            *time.Time
	CreatedAt         time.Time
}

// ScheduleChangeNotification is the transient event the schedule component
// raises on publish or material change. It is consumed once and never stored.
type ScheduleChangeNotification struct {
	EditionID    string
	ChangeType   ScheduleChangeType
	EngagementID string
	TimeSlotID   string
	ArtistName   string
	StageName    string
	OldStartTime *time.Time
	NewStartTime *time.Time
	Message      string
}
