package service

import (
	"context"
	"errors"

	"StagePasswebserver/internal/domain"
)

const defaultAudiencePageSize = 500

type PersonalSchedulesStore interface {
	ListUserIDsForEngagement(ctx context.Context, engagementID string) ([]string, error)
	ListUserIDsForEdition(ctx context.Context, editionID string, limit, offset int) ([]string, error)
}

// AudienceService computes which users should hear about a schedule change.
type AudienceService struct {
	Schedules PersonalSchedulesStore
	PageSize  int
}

// ResolveAudience returns the deduplicated user ids for the change. A change
// carrying an engagement id targets exactly the users who saved that
// engagement; anything else is edition-wide and sweeps every page of users
// with a personal schedule for the edition. The sweep runs until a short page
// so the audience is complete no matter how large it gets.
func (s *AudienceService) ResolveAudience(ctx context.Context, change domain.ScheduleChangeNotification) ([]string, error) {
	if s.Schedules == nil {
		return nil, errors.New("schedules unavailable")
	}

	if change.EngagementID != "" {
		ids, err := s.Schedules.ListUserIDsForEngagement(ctx, change.EngagementID)
		if err != nil {
			return nil, err
		}
		return dedupe(ids), nil
	}

	if change.EditionID == "" {
		return nil, domain.NewValidationError(map[string]string{"edition_id": "required"})
	}

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = defaultAudiencePageSize
	}

	seen := make(map[string]bool)
	var out []string
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.Schedules.ListUserIDsForEdition(ctx, change.EditionID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, id := range page {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
		if len(page) < pageSize {
			return out, nil
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
