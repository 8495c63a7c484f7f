package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"StagePasswebserver/internal/domain"
)

type scheduleChangeRequest struct {
	EditionID    string `json:"edition_id"`
	ChangeType   string `json:"change_type"`
	EngagementID string `json:"engagement_id"`
	TimeSlotID   string `json:"time_slot_id"`
	ArtistName   string `json:"artist_name"`
	StageName    string `json:"stage_name"`
	OldStartTime string `json:"old_start_time"`
	NewStartTime string `json:"new_start_time"`
	Message      string `json:"message"`
}

var validChangeTypes = map[domain.ScheduleChangeType]bool{
	domain.ChangeSchedulePublished:   true,
	domain.ChangeTimeChanged:         true,
	domain.ChangeEngagementCancelled: true,
	domain.ChangeStageChanged:        true,
}

// handleScheduleChange is called by the schedule publisher after a publish or
// a material edit. The fan-out happens inline; a delivery that fails midway
// still answers 202 because the publisher cannot do anything useful with the
// failure, it is visible in the logs here.
func (a *api) handleScheduleChange(w http.ResponseWriter, r *http.Request) {
	var req scheduleChangeRequest
	if err := decodeJSONAllowUnknownFields(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	changeType := domain.ScheduleChangeType(strings.TrimSpace(req.ChangeType))
	fields := map[string]string{}
	if strings.TrimSpace(req.EditionID) == "" {
		fields["edition_id"] = "required"
	}
	if !validChangeTypes[changeType] {
		fields["change_type"] = "unknown change type"
	}
	oldStart, ok := parseOptionalRFC3339(req.OldStartTime)
	if !ok {
		fields["old_start_time"] = "must be RFC 3339"
	}
	newStart, ok := parseOptionalRFC3339(req.NewStartTime)
	if !ok {
		fields["new_start_time"] = "must be RFC 3339"
	}
	if len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	change := domain.ScheduleChangeNotification{
		EditionID:    strings.TrimSpace(req.EditionID),
		ChangeType:   changeType,
		EngagementID: strings.TrimSpace(req.EngagementID),
		TimeSlotID:   strings.TrimSpace(req.TimeSlotID),
		ArtistName:   strings.TrimSpace(req.ArtistName),
		StageName:    strings.TrimSpace(req.StageName),
		OldStartTime: oldStart,
		NewStartTime: newStart,
		Message:      strings.TrimSpace(req.Message),
	}

	if err := a.deliverySvc.SendScheduleChange(r.Context(), change); err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			WriteDomainError(w, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			WriteError(w, http.StatusServiceUnavailable, "unavailable", "delivery interrupted")
		default:
			a.log().Error("schedule change delivery failed", "err", err, "edition_id", change.EditionID, "change_type", string(change.ChangeType))
			WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func parseOptionalRFC3339(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	t = t.UTC()
	return &t, true
}
