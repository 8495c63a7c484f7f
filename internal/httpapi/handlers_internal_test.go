package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"StagePasswebserver/internal/auth"
	"StagePasswebserver/internal/service"
)

type stubSchedules struct {
	engagementFunc func(context.Context, string) ([]string, error)
	editionFunc    func(context.Context, string, int, int) ([]string, error)
}

func (s *stubSchedules) ListUserIDsForEngagement(ctx context.Context, engagementID string) ([]string, error) {
	if s.engagementFunc != nil {
		return s.engagementFunc(ctx, engagementID)
	}
	return nil, nil
}

func (s *stubSchedules) ListUserIDsForEdition(ctx context.Context, editionID string, limit, offset int) ([]string, error) {
	if s.editionFunc != nil {
		return s.editionFunc(ctx, editionID, limit, offset)
	}
	return nil, nil
}

func emptyAudienceDelivery() *service.DeliveryService {
	return &service.DeliveryService{
		Devices:  &stubDevicesStore{},
		Prefs:    &service.PreferenceService{Prefs: &stubPrefsStore{}},
		Audience: &service.AudienceService{Schedules: &stubSchedules{}},
	}
}

func TestScheduleChangeRequiresAPIKey(t *testing.T) {
	hash, err := auth.HashAPIKey("publisher-key")
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}
	api := &api{internalKeyHash: hash, deliverySvc: emptyAudienceDelivery()}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/schedule-changes", strings.NewReader(`{"edition_id":"ed-1","change_type":"schedule_published"}`))
	rr := httptest.NewRecorder()
	api.requireAPIKey(api.handleScheduleChange)(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: unexpected status %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/internal/schedule-changes", strings.NewReader(`{"edition_id":"ed-1","change_type":"schedule_published"}`))
	req.Header.Set("X-Api-Key", "wrong-key")
	rr = httptest.NewRecorder()
	api.requireAPIKey(api.handleScheduleChange)(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: unexpected status %d", rr.Code)
	}
}

func TestScheduleChangeAcceptsValidKey(t *testing.T) {
	hash, err := auth.HashAPIKey("publisher-key")
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}
	api := &api{internalKeyHash: hash, deliverySvc: emptyAudienceDelivery()}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/schedule-changes", strings.NewReader(`{"edition_id":"ed-1","change_type":"schedule_published"}`))
	req.Header.Set("X-Api-Key", "publisher-key")
	rr := httptest.NewRecorder()
	api.requireAPIKey(api.handleScheduleChange)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body %s", rr.Code, rr.Body.String())
	}
}

func TestScheduleChangeValidatesPayload(t *testing.T) {
	api := &api{deliverySvc: emptyAudienceDelivery()}

	cases := []struct {
		name string
		body string
	}{
		{"missing edition", `{"change_type":"schedule_published"}`},
		{"unknown change type", `{"edition_id":"ed-1","change_type":"renamed"}`},
		{"bad timestamp", `{"edition_id":"ed-1","change_type":"time_changed","new_start_time":"tomorrow"}`},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/schedule-changes", strings.NewReader(c.body))
		rr := httptest.NewRecorder()
		api.handleScheduleChange(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: unexpected status %d", c.name, rr.Code)
		}
	}
}

func TestScheduleChangeDeliveryFailureAnswersAccepted(t *testing.T) {
	delivery := emptyAudienceDelivery()
	delivery.Audience = &service.AudienceService{Schedules: &stubSchedules{
		editionFunc: func(context.Context, string, int, int) ([]string, error) {
			return nil, errors.New("storage down")
		},
	}}
	api := &api{deliverySvc: delivery}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/schedule-changes", strings.NewReader(`{"edition_id":"ed-1","change_type":"schedule_published"}`))
	rr := httptest.NewRecorder()
	api.handleScheduleChange(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestScheduleChangeCancelledDeliveryAnswersUnavailable(t *testing.T) {
	delivery := emptyAudienceDelivery()
	delivery.Audience = &service.AudienceService{Schedules: &stubSchedules{
		editionFunc: func(ctx context.Context, _ string, _, _ int) ([]string, error) {
			return nil, context.Canceled
		},
	}}
	api := &api{deliverySvc: delivery}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/schedule-changes", strings.NewReader(`{"edition_id":"ed-1","change_type":"schedule_published"}`))
	rr := httptest.NewRecorder()
	api.handleScheduleChange(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}
