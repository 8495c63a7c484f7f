package service

import (
	"context"
	"errors"
	"testing"

	"StagePasswebserver/internal/domain"
)

type stubSchedulesStore struct {
	engagementFunc func(context.Context, string) ([]string, error)
	editionFunc    func(context.Context, string, int, int) ([]string, error)
	editionCalls   int
}

func (s *stubSchedulesStore) ListUserIDsForEngagement(ctx context.Context, engagementID string) ([]string, error) {
	if s.engagementFunc != nil {
		return s.engagementFunc(ctx, engagementID)
	}
	return nil, errors.New("engagement lookup not stubbed")
}

func (s *stubSchedulesStore) ListUserIDsForEdition(ctx context.Context, editionID string, limit, offset int) ([]string, error) {
	s.editionCalls++
	if s.editionFunc != nil {
		return s.editionFunc(ctx, editionID, limit, offset)
	}
	return nil, errors.New("edition lookup not stubbed")
}

func TestResolveAudienceEngagementTargetsSavers(t *testing.T) {
	store := &stubSchedulesStore{
		engagementFunc: func(_ context.Context, engagementID string) ([]string, error) {
			if engagementID != "eng-1" {
				t.Fatalf("unexpected engagement id: %s", engagementID)
			}
			return []string{"u1", "u2", "u1"}, nil
		},
	}
	svc := &AudienceService{Schedules: store}

	ids, err := svc.ResolveAudience(context.Background(), domain.ScheduleChangeNotification{
		EditionID:    "ed-1",
		EngagementID: "eng-1",
		ChangeType:   domain.ChangeEngagementCancelled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Fatalf("expected deduplicated [u1 u2], got %v", ids)
	}
	if store.editionCalls != 0 {
		t.Fatalf("engagement changes must not sweep the edition")
	}
}

func TestResolveAudienceEditionSweepsEveryPage(t *testing.T) {
	all := []string{"u1", "u2", "u3", "u4", "u5"}
	store := &stubSchedulesStore{
		editionFunc: func(_ context.Context, editionID string, limit, offset int) ([]string, error) {
			if editionID != "ed-1" {
				t.Fatalf("unexpected edition id: %s", editionID)
			}
			if limit != 2 {
				t.Fatalf("unexpected page size: %d", limit)
			}
			if offset >= len(all) {
				return nil, nil
			}
			end := offset + limit
			if end > len(all) {
				end = len(all)
			}
			return all[offset:end], nil
		},
	}
	svc := &AudienceService{Schedules: store, PageSize: 2}

	ids, err := svc.ResolveAudience(context.Background(), domain.ScheduleChangeNotification{
		EditionID:  "ed-1",
		ChangeType: domain.ChangeSchedulePublished,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 5 {
		t.Fatalf("expected all 5 users, got %v", ids)
	}
	if store.editionCalls != 3 {
		t.Fatalf("expected 3 pages, got %d", store.editionCalls)
	}
}

func TestResolveAudienceDeduplicatesAcrossPages(t *testing.T) {
	pages := [][]string{{"u1", "u2"}, {"u2", "u3"}, {"u3"}}
	store := &stubSchedulesStore{
		editionFunc: func(_ context.Context, _ string, _ int, offset int) ([]string, error) {
			return pages[offset/2], nil
		},
	}
	svc := &AudienceService{Schedules: store, PageSize: 2}

	ids, err := svc.ResolveAudience(context.Background(), domain.ScheduleChangeNotification{EditionID: "ed-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 unique users, got %v", ids)
	}
}

func TestResolveAudienceRequiresEditionID(t *testing.T) {
	svc := &AudienceService{Schedules: &stubSchedulesStore{}}

	_, err := svc.ResolveAudience(context.Background(), domain.ScheduleChangeNotification{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveAudienceStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &stubSchedulesStore{
		editionFunc: func(context.Context, string, int, int) ([]string, error) {
			cancel()
			return []string{"u1", "u2"}, nil
		},
	}
	svc := &AudienceService{Schedules: store, PageSize: 2}

	_, err := svc.ResolveAudience(ctx, domain.ScheduleChangeNotification{EditionID: "ed-1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.editionCalls != 1 {
		t.Fatalf("expected the sweep to stop after the first page, got %d calls", store.editionCalls)
	}
}
