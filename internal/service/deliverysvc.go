package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"StagePasswebserver/internal/domain"
	"StagePasswebserver/internal/notifications"
)

const defaultDeliveryBatchSize = 100

type NotificationLogWriter interface {
	InsertLog(ctx context.Context, l domain.NotificationLog) (domain.NotificationLog, error)
}

type AudienceResolver interface {
	ResolveAudience(ctx context.Context, change domain.ScheduleChangeNotification) ([]string, error)
}

type PreferenceReader interface {
	GetPreferences(ctx context.Context, userID string) (domain.NotificationPreference, error)
}

type EmailSender interface {
	Send(to, subject, body string) error
}

// DeliveryService fans one logical notification out to users and their
// devices: preference gating, quiet hours, provider dispatch, device
// retirement and log recording. Delivery is at-most-once per invocation;
// nothing here retries.
type DeliveryService struct {
	Devices  DeviceTokensStore
	Prefs    PreferenceReader
	Audience AudienceResolver
	Logs     NotificationLogWriter
	Sender   notifications.PushSender

	// Email and Users together enable the mail mirror: users who keep
	// EmailEnabled on get a plain-text copy of each notification. Either
	// being nil disables the channel.
	Email EmailSender
	Users UsersStore

	// Limiter caps provider calls across all concurrent sends. Nil means
	// uncapped.
	Limiter *rate.Limiter

	BatchSize int
	Logger    *slog.Logger
	Now       func() time.Time
}

// SendParams describes one logical notification to one or more users.
type SendParams struct {
	Type              domain.NotificationType
	Title             string
	Body              string
	Data              map[string]string
	RelatedEntityType string
	RelatedEntityID   string
}

// SendToUser runs the sequential preference gates and, when they pass,
// attempts delivery to every active device. A gate failure short-circuits
// with no log row at all: "not attempted" stays distinguishable from
// "attempted and failed". Every attempted device gets exactly one log row,
// written after the attempt so a crash mid-send can never fabricate a
// delivered record.
func (s *DeliveryService) SendToUser(ctx context.Context, userID string, p SendParams) error {
	if s.Devices == nil || s.Prefs == nil || s.Logs == nil || s.Sender == nil {
		return errors.New("delivery unavailable")
	}
	logger := s.logger()

	prefs, err := s.Prefs.GetPreferences(ctx, userID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	if !prefs.PushEnabled {
		return nil
	}
	if !prefs.EnabledFor(p.Type) {
		return nil
	}
	if IsInQuietHours(prefs, s.now(), logger) {
		return nil
	}

	devices, err := s.Devices.ListDevices(ctx, userID)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	payload := ""
	if len(p.Data) > 0 {
		raw, err := json.Marshal(p.Data)
		if err != nil {
			return fmt.Errorf("marshal data payload: %w", err)
		}
		payload = string(raw)
	}

	msg := notifications.Message{
		Data: p.Data,
		Notification: &notifications.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
	}

	for _, d := range devices {
		if !d.IsActive {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		sendErr := s.Sender.Send(ctx, notifications.Target{Token: d.Token, Platform: d.Platform}, msg)
		now := s.now()

		entry := domain.NotificationLog{
			UserID:            userID,
			DeviceTokenID:     d.ID,
			Type:              p.Type,
			Title:             p.Title,
			Body:              p.Body,
			DataPayload:       payload,
			RelatedEntityType: p.RelatedEntityType,
			RelatedEntityID:   p.RelatedEntityID,
			SentAt:            now,
			IsDelivered:       sendErr == nil,
		}

		switch {
		case sendErr == nil:
			if err := s.Devices.TouchLastUsed(ctx, d.ID, now); err != nil {
				logger.Warn("delivery: touch device failed", "err", err, "device_id", d.ID)
			}
		case notifications.IsPermanent(sendErr):
			// The provider says this token is dead for good; retire the
			// device so future fan-outs skip it.
			entry.ErrorMessage = sendErr.Error()
			if err := s.Devices.DeactivateDevice(ctx, d.ID, domain.SystemPrincipal, now); err != nil {
				logger.Error("delivery: deactivate dead device failed", "err", err, "device_id", d.ID)
			} else {
				logger.Info("delivery: retired dead device", "device_id", d.ID, "user_id", userID)
			}
		default:
			entry.ErrorMessage = sendErr.Error()
			logger.Warn("delivery: transient send failure", "err", sendErr, "device_id", d.ID, "user_id", userID)
		}

		if _, err := s.Logs.InsertLog(ctx, entry); err != nil {
			logger.Error("delivery: log write failed", "err", err, "device_id", d.ID, "user_id", userID)
		}
	}

	// The mail mirror sits behind the same gates as push.
	if s.Email != nil && s.Users != nil && prefs.EmailEnabled {
		s.mirrorToEmail(ctx, userID, p, payload, logger)
	}

	return nil
}

// mirrorToEmail sends the plain-text copy and records it as a log row with no
// device id. Mail failures are logged and swallowed like any other single
// channel failure.
func (s *DeliveryService) mirrorToEmail(ctx context.Context, userID string, p SendParams, payload string, logger *slog.Logger) {
	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		logger.Warn("delivery: email address lookup failed", "err", err, "user_id", userID)
		return
	}
	if u.Email == "" {
		return
	}

	sendErr := s.Email.Send(u.Email, p.Title, p.Body)
	entry := domain.NotificationLog{
		UserID:            userID,
		Type:              p.Type,
		Title:             p.Title,
		Body:              p.Body,
		DataPayload:       payload,
		RelatedEntityType: p.RelatedEntityType,
		RelatedEntityID:   p.RelatedEntityID,
		SentAt:            s.now(),
		IsDelivered:       sendErr == nil,
	}
	if sendErr != nil {
		entry.ErrorMessage = sendErr.Error()
		logger.Warn("delivery: email send failed", "err", sendErr, "user_id", userID)
	}
	if _, err := s.Logs.InsertLog(ctx, entry); err != nil {
		logger.Error("delivery: log write failed", "err", err, "user_id", userID)
	}
}

// SendToUsers partitions the audience into fixed-size batches and sends to
// every user in a batch concurrently, waiting for the whole batch before
// starting the next. Batches bound the simultaneous load on the provider and
// the database; one user's failure never stops the rest.
func (s *DeliveryService) SendToUsers(ctx context.Context, userIDs []string, p SendParams) error {
	logger := s.logger()
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = defaultDeliveryBatchSize
	}

	for start := 0; start < len(userIDs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + batchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}

		var g errgroup.Group
		for _, userID := range userIDs[start:end] {
			g.Go(func() error {
				err := s.SendToUser(ctx, userID, p)
				if err == nil {
					return nil
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Error("delivery: send to user failed", "err", err, "user_id", userID)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// SendScheduleChange resolves the audience for a schedule change and fans the
// notification out. Audience-resolution failures propagate; the publishing
// flow that triggers this call must log them and carry on, because a
// notification problem is never a reason to fail a publish.
func (s *DeliveryService) SendScheduleChange(ctx context.Context, change domain.ScheduleChangeNotification) error {
	if s.Audience == nil {
		return errors.New("delivery unavailable")
	}
	logger := s.logger()

	audience, err := s.Audience.ResolveAudience(ctx, change)
	if err != nil {
		return fmt.Errorf("resolve audience: %w", err)
	}
	if len(audience) == 0 {
		logger.Debug("delivery: empty audience for schedule change", "edition_id", change.EditionID, "change_type", change.ChangeType)
		return nil
	}

	data := map[string]string{
		"type":        string(domain.NotificationTypeScheduleChange),
		"edition_id":  change.EditionID,
		"change_type": string(change.ChangeType),
	}
	if change.EngagementID != "" {
		data["engagement_id"] = change.EngagementID
	}
	if change.TimeSlotID != "" {
		data["time_slot_id"] = change.TimeSlotID
	}
	if change.OldStartTime != nil {
		data["old_start_time"] = change.OldStartTime.UTC().Format(time.RFC3339)
	}
	if change.NewStartTime != nil {
		data["new_start_time"] = change.NewStartTime.UTC().Format(time.RFC3339)
	}

	title := "Schedule update"
	if change.ArtistName != "" {
		title = fmt.Sprintf("Schedule update: %s", change.ArtistName)
	}

	relatedType, relatedID := "edition", change.EditionID
	if change.EngagementID != "" {
		relatedType, relatedID = "engagement", change.EngagementID
	}

	logger.Info("delivery: schedule change fan-out",
		"edition_id", change.EditionID,
		"change_type", change.ChangeType,
		"audience", len(audience),
	)

	return s.SendToUsers(ctx, audience, SendParams{
		Type:              domain.NotificationTypeScheduleChange,
		Title:             title,
		Body:              change.Message,
		Data:              data,
		RelatedEntityType: relatedType,
		RelatedEntityID:   relatedID,
	})
}

// now must stay read-only; per-user sends call it concurrently.
func (s *DeliveryService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *DeliveryService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
