package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StagePasswebserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeviceTokensStore struct {
	pool *pgxpool.Pool
}

func NewDeviceTokensStore(pool *pgxpool.Pool) *DeviceTokensStore {
	return &DeviceTokensStore{pool: pool}
}

const deviceTokenColumns = `id, user_id, token, platform, device_name, is_active, last_used_at, created_at, updated_at`

// UpsertDevice inserts a device row or, when the token value already exists,
// moves the row to the new owner and reactivates it. The token column is
// unique, so a re-presented token can never produce a second live row.
func (s *DeviceTokensStore) UpsertDevice(ctx context.Context, userID string, token string, platform domain.Platform, deviceName string, when time.Time) (domain.DeviceToken, error) {
	const q = `
		INSERT INTO device_tokens (user_id, token, platform, device_name, is_active, last_used_at, created_at, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5, $5, $1)
		ON CONFLICT (token)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			device_name = EXCLUDED.device_name,
			is_active = TRUE,
			last_used_at = EXCLUDED.last_used_at,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
		RETURNING ` + deviceTokenColumns + `
	`

	row := s.pool.QueryRow(ctx, q, userID, token, string(platform), nullIfEmpty(deviceName), when)
	out, err := scanDeviceToken(row)
	if err != nil {
		return domain.DeviceToken{}, fmt.Errorf("upsert device token: %w", err)
	}
	return out, nil
}

func (s *DeviceTokensStore) GetDeviceByID(ctx context.Context, deviceID string) (domain.DeviceToken, error) {
	const q = `
		SELECT ` + deviceTokenColumns + `
		FROM device_tokens
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, q, deviceID)
	out, err := scanDeviceToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DeviceToken{}, domain.ErrNotFound
		}
		return domain.DeviceToken{}, fmt.Errorf("get device token: %w", err)
	}
	return out, nil
}

// ListDevices returns every device row for the user, deactivated rows
// included. Filtering on is_active is the caller's job.
func (s *DeviceTokensStore) ListDevices(ctx context.Context, userID string) ([]domain.DeviceToken, error) {
	const q = `
		SELECT ` + deviceTokenColumns + `
		FROM device_tokens
		WHERE user_id = $1
		ORDER BY last_used_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	defer rows.Close()

	var out []domain.DeviceToken
	for rows.Next() {
		d, err := scanDeviceToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	return out, nil
}

// DeactivateDevice soft-deletes the row. Rows are never hard-deleted so the
// notification log keeps a valid device reference.
func (s *DeviceTokensStore) DeactivateDevice(ctx context.Context, deviceID string, by domain.Principal, when time.Time) error {
	const q = `
		UPDATE device_tokens
		SET is_active = FALSE, updated_at = $2, updated_by = $3
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, deviceID, when, by.AuditID())
	if err != nil {
		return fmt.Errorf("deactivate device token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *DeviceTokensStore) DeactivateByToken(ctx context.Context, token string, by domain.Principal, when time.Time) error {
	const q = `
		UPDATE device_tokens
		SET is_active = FALSE, updated_at = $2, updated_by = $3
		WHERE token = $1
	`
	tag, err := s.pool.Exec(ctx, q, token, when, by.AuditID())
	if err != nil {
		return fmt.Errorf("deactivate device token by value: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TouchLastUsed refreshes last_used_at after a successful delivery. Concurrent
// sends may race on this column; last writer wins and that is fine, the value
// is advisory telemetry.
func (s *DeviceTokensStore) TouchLastUsed(ctx context.Context, deviceID string, when time.Time) error {
	const q = `
		UPDATE device_tokens
		SET last_used_at = $2
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, deviceID, when); err != nil {
		return fmt.Errorf("touch device token: %w", err)
	}
	return nil
}

func scanDeviceToken(row pgx.Row) (domain.DeviceToken, error) {
	var (
		d          domain.DeviceToken
		idUUID     pgtype.UUID
		userUUID   pgtype.UUID
		platform   string
		deviceName pgtype.Text
	)
	err := row.Scan(
		&idUUID,
		&userUUID,
		&d.Token,
		&platform,
		&deviceName,
		&d.IsActive,
		&d.LastUsedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return domain.DeviceToken{}, err
	}
	d.ID = uuidOrEmpty(idUUID)
	d.UserID = uuidOrEmpty(userUUID)
	d.Platform = domain.Platform(platform)
	d.DeviceName = textOrEmpty(deviceName)
	return d, nil
}
