package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PersonalSchedulesStore reads the saved-performance data owned by the
// personal-schedule component. This subsystem only ever uses it as an
// audience-membership signal.
type PersonalSchedulesStore struct {
	pool *pgxpool.Pool
}

func NewPersonalSchedulesStore(pool *pgxpool.Pool) *PersonalSchedulesStore {
	return &PersonalSchedulesStore{pool: pool}
}

// ListUserIDsForEngagement returns every user that saved the given engagement.
func (s *PersonalSchedulesStore) ListUserIDsForEngagement(ctx context.Context, engagementID string) ([]string, error) {
	const q = `
		SELECT DISTINCT user_id
		FROM personal_schedule_entries
		WHERE engagement_id = $1
	`

	rows, err := s.pool.Query(ctx, q, engagementID)
	if err != nil {
		return nil, fmt.Errorf("list users for engagement: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userUUID pgtype.UUID
		if err := rows.Scan(&userUUID); err != nil {
			return nil, fmt.Errorf("scan engagement user: %w", err)
		}
		out = append(out, uuidOrEmpty(userUUID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users for engagement: %w", err)
	}
	return out, nil
}

// ListUserIDsForEdition returns one page of distinct users holding any
// personal schedule for the edition. Ordering by user_id keeps pages stable
// across the resolver's sweep.
func (s *PersonalSchedulesStore) ListUserIDsForEdition(ctx context.Context, editionID string, limit, offset int) ([]string, error) {
	const q = `
		SELECT DISTINCT user_id
		FROM personal_schedule_entries
		WHERE edition_id = $1
		ORDER BY user_id
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, q, editionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users for edition: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userUUID pgtype.UUID
		if err := rows.Scan(&userUUID); err != nil {
			return nil, fmt.Errorf("scan edition user: %w", err)
		}
		out = append(out, uuidOrEmpty(userUUID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users for edition: %w", err)
	}
	return out, nil
}
