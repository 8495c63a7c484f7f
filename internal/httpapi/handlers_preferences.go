package httpapi

import (
	"encoding/json"
	"net/http"

	"StagePasswebserver/internal/domain"
	"StagePasswebserver/internal/service"
)

type preferencesResponse struct {
	PushEnabled            bool    `json:"push_enabled"`
	EmailEnabled           bool    `json:"email_enabled"`
	ScheduleChangesEnabled bool    `json:"schedule_changes_enabled"`
	RemindersEnabled       bool    `json:"reminders_enabled"`
	AnnouncementsEnabled   bool    `json:"announcements_enabled"`
	ReminderMinutesBefore  int     `json:"reminder_minutes_before"`
	QuietHoursStart        *string `json:"quiet_hours_start"`
	QuietHoursEnd          *string `json:"quiet_hours_end"`
	TimeZoneID             string  `json:"timezone_id,omitempty"`
}

func toPreferencesResponse(p domain.NotificationPreference) preferencesResponse {
	return preferencesResponse{
		PushEnabled:            p.PushEnabled,
		EmailEnabled:           p.EmailEnabled,
		ScheduleChangesEnabled: p.ScheduleChangesEnabled,
		RemindersEnabled:       p.RemindersEnabled,
		AnnouncementsEnabled:   p.AnnouncementsEnabled,
		ReminderMinutesBefore:  p.ReminderMinutesBefore,
		QuietHoursStart:        formatClockPtr(p.QuietHoursStart),
		QuietHoursEnd:          formatClockPtr(p.QuietHoursEnd),
		TimeZoneID:             p.TimeZoneID,
	}
}

func (a *api) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	p, err := a.prefSvc.GetPreferences(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toPreferencesResponse(p))
}

// updatePreferencesRequest distinguishes "absent" from "null": absent leaves
// the stored value alone, an explicit null on either quiet-hours bound clears
// the window.
type updatePreferencesRequest struct {
	PushEnabled            *bool   `json:"push_enabled"`
	EmailEnabled           *bool   `json:"email_enabled"`
	ScheduleChangesEnabled *bool   `json:"schedule_changes_enabled"`
	RemindersEnabled       *bool   `json:"reminders_enabled"`
	AnnouncementsEnabled   *bool   `json:"announcements_enabled"`
	ReminderMinutesBefore  *int    `json:"reminder_minutes_before"`
	QuietHoursStart        *string `json:"quiet_hours_start"`
	QuietHoursEnd          *string `json:"quiet_hours_end"`
	TimeZoneID             *string `json:"timezone_id"`

	quietStartPresent bool
	quietEndPresent   bool
}

func (req *updatePreferencesRequest) UnmarshalJSON(b []byte) error {
	type plain updatePreferencesRequest
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	_, p.quietStartPresent = keys["quiet_hours_start"]
	_, p.quietEndPresent = keys["quiet_hours_end"]

	*req = updatePreferencesRequest(p)
	return nil
}

func (a *api) handlePreferencesUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req updatePreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	patch := service.PreferencePatch{
		PushEnabled:            req.PushEnabled,
		EmailEnabled:           req.EmailEnabled,
		ScheduleChangesEnabled: req.ScheduleChangesEnabled,
		RemindersEnabled:       req.RemindersEnabled,
		AnnouncementsEnabled:   req.AnnouncementsEnabled,
		ReminderMinutesBefore:  req.ReminderMinutesBefore,
		TimeZoneID:             req.TimeZoneID,
	}

	if req.quietStartPresent && req.QuietHoursStart == nil || req.quietEndPresent && req.QuietHoursEnd == nil {
		patch.ClearQuietHours = true
	}
	if req.QuietHoursStart != nil {
		t, ok := parseClockTime(*req.QuietHoursStart)
		if !ok {
			WriteDomainError(w, domain.NewValidationError(map[string]string{"quiet_hours_start": "must be HH:MM"}))
			return
		}
		patch.QuietHoursStart = &t
	}
	if req.QuietHoursEnd != nil {
		t, ok := parseClockTime(*req.QuietHoursEnd)
		if !ok {
			WriteDomainError(w, domain.NewValidationError(map[string]string{"quiet_hours_end": "must be HH:MM"}))
			return
		}
		patch.QuietHoursEnd = &t
	}

	p, err := a.prefSvc.UpdatePreferences(r.Context(), u.ID, patch)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toPreferencesResponse(p))
}
