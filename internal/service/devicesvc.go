package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"StagePasswebserver/internal/domain"
)

type DeviceTokensStore interface {
	UpsertDevice(ctx context.Context, userID string, token string, platform domain.Platform, deviceName string, when time.Time) (domain.DeviceToken, error)
	GetDeviceByID(ctx context.Context, deviceID string) (domain.DeviceToken, error)
	ListDevices(ctx context.Context, userID string) ([]domain.DeviceToken, error)
	DeactivateDevice(ctx context.Context, deviceID string, by domain.Principal, when time.Time) error
	DeactivateByToken(ctx context.Context, token string, by domain.Principal, when time.Time) error
	TouchLastUsed(ctx context.Context, deviceID string, when time.Time) error
}

// DeviceService owns the device-token lifecycle per user.
type DeviceService struct {
	Devices DeviceTokensStore
	Logger  *slog.Logger
	Now     func() time.Time
}

// RegisterDevice upserts by token value. A token already registered (same
// phone reinstalled, or handed to a different account) is reassigned to the
// caller and reactivated instead of producing a second live row.
func (s *DeviceService) RegisterDevice(ctx context.Context, userID, token string, platform domain.Platform, deviceName string) (domain.DeviceToken, error) {
	if s.Devices == nil {
		return domain.DeviceToken{}, errors.New("devices unavailable")
	}
	token = strings.TrimSpace(token)
	platform = domain.Platform(strings.ToLower(strings.TrimSpace(string(platform))))
	if token == "" {
		return domain.DeviceToken{}, domain.NewValidationError(map[string]string{"token": "required"})
	}
	if !domain.ValidPlatform(platform) {
		return domain.DeviceToken{}, domain.NewValidationError(map[string]string{"platform": "must be ios, android or web"})
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	when := s.Now().UTC().Truncate(time.Millisecond)
	return s.Devices.UpsertDevice(ctx, userID, token, platform, strings.TrimSpace(deviceName), when)
}

// ListDevices returns every device row for the user, deactivated ones
// included; callers filter on IsActive as needed.
func (s *DeviceService) ListDevices(ctx context.Context, userID string) ([]domain.DeviceToken, error) {
	if s.Devices == nil {
		return nil, errors.New("devices unavailable")
	}
	return s.Devices.ListDevices(ctx, userID)
}

// UnregisterDevice deactivates one of the caller's own devices. A device
// owned by someone else fails with ErrForbidden; the row is kept (soft
// delete) so delivery history stays attributable.
func (s *DeviceService) UnregisterDevice(ctx context.Context, userID, deviceID string) error {
	if s.Devices == nil {
		return errors.New("devices unavailable")
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return domain.NewValidationError(map[string]string{"device_id": "required"})
	}

	d, err := s.Devices.GetDeviceByID(ctx, deviceID)
	if err != nil {
		return err
	}
	if d.UserID != userID {
		return domain.ErrForbidden
	}

	if s.Now == nil {
		s.Now = time.Now
	}
	return s.Devices.DeactivateDevice(ctx, deviceID, domain.UserPrincipal(userID), s.Now().UTC())
}

// UnregisterByToken handles unauthenticated provider callbacks. There is no
// real user behind the call, so the mutation is attributed to the explicit
// system principal.
func (s *DeviceService) UnregisterByToken(ctx context.Context, token string) error {
	if s.Devices == nil {
		return errors.New("devices unavailable")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError(map[string]string{"token": "required"})
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s.Devices.DeactivateByToken(ctx, token, domain.SystemPrincipal, s.Now().UTC())
}
