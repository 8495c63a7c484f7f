package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"StagePasswebserver/internal/domain"
)

const (
	defaultInboxPageSize = 20
	maxInboxPageSize     = 100
)

type NotificationLogsStore interface {
	NotificationLogWriter
	ListLogsForUser(ctx context.Context, userID string, limit, offset int) ([]domain.NotificationLog, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string, when time.Time) error
	MarkAllRead(ctx context.Context, userID string, when time.Time) error
}

// InboxService is the attendee-facing read side of the notification log.
type InboxService struct {
	Logs NotificationLogsStore
	Now  func() time.Time
}

func (s *InboxService) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]domain.NotificationLog, error) {
	if s.Logs == nil {
		return nil, errors.New("notifications unavailable")
	}
	if limit <= 0 {
		limit = defaultInboxPageSize
	}
	if limit > maxInboxPageSize {
		limit = maxInboxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.Logs.ListLogsForUser(ctx, userID, limit, offset)
}

func (s *InboxService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s.Logs == nil {
		return 0, errors.New("notifications unavailable")
	}
	return s.Logs.CountUnread(ctx, userID)
}

// MarkAsRead stamps the read time once; a second call is a harmless no-op.
// Another user's notification id behaves exactly like a missing one.
func (s *InboxService) MarkAsRead(ctx context.Context, userID, id string) error {
	if s.Logs == nil {
		return errors.New("notifications unavailable")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NewValidationError(map[string]string{"id": "required"})
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s.Logs.MarkRead(ctx, userID, id, s.Now().UTC())
}

func (s *InboxService) MarkAllAsRead(ctx context.Context, userID string) error {
	if s.Logs == nil {
		return errors.New("notifications unavailable")
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s.Logs.MarkAllRead(ctx, userID, s.Now().UTC())
}
