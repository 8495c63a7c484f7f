package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StagePasswebserver/internal/domain"
	"StagePasswebserver/internal/service"
)

type stubPrefsStore struct {
	getFunc    func(context.Context, string) (domain.NotificationPreference, error)
	upsertFunc func(context.Context, domain.NotificationPreference, time.Time) (domain.NotificationPreference, error)
}

func (s *stubPrefsStore) GetPreferences(ctx context.Context, userID string) (domain.NotificationPreference, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, userID)
	}
	return domain.NotificationPreference{}, domain.ErrNotFound
}

func (s *stubPrefsStore) UpsertPreferences(ctx context.Context, p domain.NotificationPreference, when time.Time) (domain.NotificationPreference, error) {
	if s.upsertFunc != nil {
		return s.upsertFunc(ctx, p, when)
	}
	return p, nil
}

func TestPreferencesGetReturnsDefaults(t *testing.T) {
	api := &api{
		prefSvc: &service.PreferenceService{Prefs: &stubPrefsStore{}},
	}

	rr := httptest.NewRecorder()
	api.handlePreferencesGet(rr, authedRequest(http.MethodGet, "/v1/notifications/preferences", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp preferencesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.PushEnabled || !resp.ScheduleChangesEnabled {
		t.Fatalf("expected defaults with push on: %+v", resp)
	}
	if resp.QuietHoursStart != nil || resp.QuietHoursEnd != nil {
		t.Fatalf("expected no quiet hours in defaults")
	}
}

func TestPreferencesUpdateSetsQuietHours(t *testing.T) {
	var written domain.NotificationPreference
	api := &api{
		prefSvc: &service.PreferenceService{Prefs: &stubPrefsStore{
			upsertFunc: func(_ context.Context, p domain.NotificationPreference, _ time.Time) (domain.NotificationPreference, error) {
				written = p
				return p, nil
			},
		}},
	}

	rr := httptest.NewRecorder()
	api.handlePreferencesUpdate(rr, authedRequest(http.MethodPatch, "/v1/notifications/preferences",
		`{"quiet_hours_start":"23:00","quiet_hours_end":"06:30","timezone_id":"Europe/Amsterdam"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body %s", rr.Code, rr.Body.String())
	}
	if written.QuietHoursStart == nil || written.QuietHoursStart.Hour != 23 || written.QuietHoursStart.Minute != 0 {
		t.Fatalf("unexpected start: %+v", written.QuietHoursStart)
	}
	if written.QuietHoursEnd == nil || written.QuietHoursEnd.Hour != 6 || written.QuietHoursEnd.Minute != 30 {
		t.Fatalf("unexpected end: %+v", written.QuietHoursEnd)
	}
	if written.TimeZoneID != "Europe/Amsterdam" {
		t.Fatalf("unexpected timezone: %q", written.TimeZoneID)
	}
}

func TestPreferencesUpdateNullClearsQuietHours(t *testing.T) {
	stored := domain.DefaultPreferences("user-1")
	stored.QuietHoursStart = &domain.TimeOfDay{Hour: 23, Minute: 0}
	stored.QuietHoursEnd = &domain.TimeOfDay{Hour: 6, Minute: 0}

	var written domain.NotificationPreference
	api := &api{
		prefSvc: &service.PreferenceService{Prefs: &stubPrefsStore{
			getFunc: func(context.Context, string) (domain.NotificationPreference, error) {
				return stored, nil
			},
			upsertFunc: func(_ context.Context, p domain.NotificationPreference, _ time.Time) (domain.NotificationPreference, error) {
				written = p
				return p, nil
			},
		}},
	}

	rr := httptest.NewRecorder()
	api.handlePreferencesUpdate(rr, authedRequest(http.MethodPatch, "/v1/notifications/preferences",
		`{"quiet_hours_start":null,"quiet_hours_end":null}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body %s", rr.Code, rr.Body.String())
	}
	if written.QuietHoursStart != nil || written.QuietHoursEnd != nil {
		t.Fatalf("expected quiet hours cleared, got %+v %+v", written.QuietHoursStart, written.QuietHoursEnd)
	}
}

func TestPreferencesUpdateRejectsBadClockValue(t *testing.T) {
	api := &api{
		prefSvc: &service.PreferenceService{Prefs: &stubPrefsStore{}},
	}

	rr := httptest.NewRecorder()
	api.handlePreferencesUpdate(rr, authedRequest(http.MethodPatch, "/v1/notifications/preferences",
		`{"quiet_hours_start":"25:00"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestParseClockTime(t *testing.T) {
	cases := []struct {
		in   string
		want domain.TimeOfDay
		ok   bool
	}{
		{"00:00", domain.TimeOfDay{}, true},
		{"23:59", domain.TimeOfDay{Hour: 23, Minute: 59}, true},
		{"7:30", domain.TimeOfDay{}, false},
		{"24:00", domain.TimeOfDay{}, false},
		{"12:60", domain.TimeOfDay{}, false},
		{"noon", domain.TimeOfDay{}, false},
		{"", domain.TimeOfDay{}, false},
	}
	for _, c := range cases {
		got, ok := parseClockTime(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("parseClockTime(%q) = %+v %v, want %+v %v", c.in, got, ok, c.want, c.ok)
		}
	}
}
