package postgres

import (
	"context"
	"fmt"
	"time"

	"StagePasswebserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationLogsStore struct {
	pool *pgxpool.Pool
}

func NewNotificationLogsStore(pool *pgxpool.Pool) *NotificationLogsStore {
	return &NotificationLogsStore{pool: pool}
}

const notificationLogColumns = `id, user_id, device_token_id, type, title, body, data_payload,
			related_entity_type, related_entity_id, sent_at, is_delivered, error_message, read_at, created_at`

func (s *NotificationLogsStore) InsertLog(ctx context.Context, l domain.NotificationLog) (domain.NotificationLog, error) {
	const q = `
		INSERT INTO notification_logs (
			user_id, device_token_id, type, title, body, data_payload,
			related_entity_type, related_entity_id, sent_at, is_delivered, error_message, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $9)
		RETURNING ` + notificationLogColumns + `
	`

	row := s.pool.QueryRow(ctx, q,
		l.UserID,
		nullIfEmpty(l.DeviceTokenID),
		string(l.Type),
		l.Title,
		l.Body,
		nullIfEmpty(l.DataPayload),
		nullIfEmpty(l.RelatedEntityType),
		nullIfEmpty(l.RelatedEntityID),
		l.SentAt,
		l.IsDelivered,
		nullIfEmpty(l.ErrorMessage),
	)
	out, err := scanNotificationLog(row)
	if err != nil {
		return domain.NotificationLog{}, fmt.Errorf("insert notification log: %w", err)
	}
	return out, nil
}

func (s *NotificationLogsStore) ListLogsForUser(ctx context.Context, userID string, limit, offset int) ([]domain.NotificationLog, error) {
	const q = `
		SELECT ` + notificationLogColumns + `
		FROM notification_logs
		WHERE user_id = $1
		ORDER BY sent_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notification logs: %w", err)
	}
	defer rows.Close()

	var out []domain.NotificationLog
	for rows.Next() {
		l, err := scanNotificationLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification log: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notification logs: %w", err)
	}
	return out, nil
}

func (s *NotificationLogsStore) CountUnread(ctx context.Context, userID string) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM notification_logs
		WHERE user_id = $1 AND read_at IS NULL
	`

	var n int
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead stamps read_at once; repeated calls keep the first timestamp. A
// row owned by someone else is indistinguishable from a missing one.
func (s *NotificationLogsStore) MarkRead(ctx context.Context, userID, id string, when time.Time) error {
	const q = `
		UPDATE notification_logs
		SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
	`
	tag, err := s.pool.Exec(ctx, q, id, userID, when)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *NotificationLogsStore) MarkAllRead(ctx context.Context, userID string, when time.Time) error {
	const q = `
		UPDATE notification_logs
		SET read_at = $2
		WHERE user_id = $1 AND read_at IS NULL
	`
	if _, err := s.pool.Exec(ctx, q, userID, when); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func scanNotificationLog(row pgx.Row) (domain.NotificationLog, error) {
	var (
		l          domain.NotificationLog
		idUUID     pgtype.UUID
		userUUID   pgtype.UUID
		deviceUUID pgtype.UUID
		typ        string
		payload    pgtype.Text
		relType    pgtype.Text
		relID      pgtype.Text
		errMsg     pgtype.Text
		readAt     pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&userUUID,
		&deviceUUID,
		&typ,
		&l.Title,
		&l.Body,
		&payload,
		&relType,
		&relID,
		&l.SentAt,
		&l.IsDelivered,
		&errMsg,
		&readAt,
		&l.CreatedAt,
	)
	if err != nil {
		return domain.NotificationLog{}, err
	}
	l.ID = uuidOrEmpty(idUUID)
	l.UserID = uuidOrEmpty(userUUID)
	l.DeviceTokenID = uuidOrEmpty(deviceUUID)
	l.Type = domain.NotificationType(typ)
	l.DataPayload = textOrEmpty(payload)
	l.RelatedEntityType = textOrEmpty(relType)
	l.RelatedEntityID = textOrEmpty(relID)
	l.ErrorMessage = textOrEmpty(errMsg)
	l.ReadAt = timestamptzPtr(readAt)
	return l, nil
}
