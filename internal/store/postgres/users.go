package postgres

import (
	"context"
	"errors"
	"fmt"

	"StagePasswebserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsersStore is read-only: account creation and profile edits live in the
// account service.
type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `
		SELECT id, email, username, status, created_at, updated_at, last_login_at
		FROM users
		WHERE id = $1
	`

	var (
		u         domain.User
		idUUID    pgtype.UUID
		status    string
		lastLogin pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&idUUID,
		&u.Email,
		&u.Username,
		&status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Status = domain.UserStatus(status)
	u.LastLoginAt = timestamptzPtr(lastLogin)
	return u, nil
}
