package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"StagePasswebserver/internal/domain"
)

type stubDeviceTokensStore struct {
	upsertFunc            func(context.Context, string, string, domain.Platform, string, time.Time) (domain.DeviceToken, error)
	getFunc               func(context.Context, string) (domain.DeviceToken, error)
	deactivateFunc        func(context.Context, string, domain.Principal, time.Time) error
	deactivateByTokenFunc func(context.Context, string, domain.Principal, time.Time) error
}

func (s *stubDeviceTokensStore) UpsertDevice(ctx context.Context, userID, token string, platform domain.Platform, deviceName string, when time.Time) (domain.DeviceToken, error) {
	if s.upsertFunc != nil {
		return s.upsertFunc(ctx, userID, token, platform, deviceName, when)
	}
	return domain.DeviceToken{}, errors.New("upsert not stubbed")
}

func (s *stubDeviceTokensStore) GetDeviceByID(ctx context.Context, deviceID string) (domain.DeviceToken, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, deviceID)
	}
	return domain.DeviceToken{}, errors.New("get not stubbed")
}

func (s *stubDeviceTokensStore) ListDevices(context.Context, string) ([]domain.DeviceToken, error) {
	return nil, errors.New("list not stubbed")
}

func (s *stubDeviceTokensStore) DeactivateDevice(ctx context.Context, deviceID string, by domain.Principal, when time.Time) error {
	if s.deactivateFunc != nil {
		return s.deactivateFunc(ctx, deviceID, by, when)
	}
	return errors.New("deactivate not stubbed")
}

func (s *stubDeviceTokensStore) DeactivateByToken(ctx context.Context, token string, by domain.Principal, when time.Time) error {
	if s.deactivateByTokenFunc != nil {
		return s.deactivateByTokenFunc(ctx, token, by, when)
	}
	return errors.New("deactivate by token not stubbed")
}

func (s *stubDeviceTokensStore) TouchLastUsed(context.Context, string, time.Time) error {
	return errors.New("touch not stubbed")
}

func TestRegisterDeviceNormalizesInput(t *testing.T) {
	store := &stubDeviceTokensStore{
		upsertFunc: func(_ context.Context, userID, token string, platform domain.Platform, deviceName string, _ time.Time) (domain.DeviceToken, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			if token != "fcm-token-1" {
				t.Fatalf("expected trimmed token, got %q", token)
			}
			if platform != domain.PlatformIOS {
				t.Fatalf("expected normalized platform, got %q", platform)
			}
			if deviceName != "My Phone" {
				t.Fatalf("expected trimmed device name, got %q", deviceName)
			}
			return domain.DeviceToken{ID: "dev-1", UserID: userID, Token: token, Platform: platform, IsActive: true}, nil
		},
	}
	svc := &DeviceService{Devices: store}

	d, err := svc.RegisterDevice(context.Background(), "user-1", "  fcm-token-1 ", " IOS ", "  My Phone ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID != "dev-1" || !d.IsActive {
		t.Fatalf("unexpected device: %+v", d)
	}
}

func TestRegisterDeviceRejectsBadInput(t *testing.T) {
	svc := &DeviceService{Devices: &stubDeviceTokensStore{}}

	if _, err := svc.RegisterDevice(context.Background(), "user-1", "   ", domain.PlatformIOS, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty token, got %v", err)
	}
	if _, err := svc.RegisterDevice(context.Background(), "user-1", "tok", "windows", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown platform, got %v", err)
	}
}

func TestUnregisterDeviceRejectsForeignDevice(t *testing.T) {
	store := &stubDeviceTokensStore{
		getFunc: func(context.Context, string) (domain.DeviceToken, error) {
			return domain.DeviceToken{ID: "dev-1", UserID: "someone-else"}, nil
		},
		deactivateFunc: func(context.Context, string, domain.Principal, time.Time) error {
			t.Fatalf("foreign device must not be deactivated")
			return nil
		},
	}
	svc := &DeviceService{Devices: store}

	err := svc.UnregisterDevice(context.Background(), "user-1", "dev-1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUnregisterDeviceAttributesToOwner(t *testing.T) {
	var deactivated bool
	store := &stubDeviceTokensStore{
		getFunc: func(context.Context, string) (domain.DeviceToken, error) {
			return domain.DeviceToken{ID: "dev-1", UserID: "user-1"}, nil
		},
		deactivateFunc: func(_ context.Context, deviceID string, by domain.Principal, _ time.Time) error {
			deactivated = true
			if deviceID != "dev-1" {
				t.Fatalf("unexpected device id: %s", deviceID)
			}
			if by.System || by.UserID != "user-1" {
				t.Fatalf("expected the owner as principal, got %+v", by)
			}
			return nil
		},
	}
	svc := &DeviceService{Devices: store}

	if err := svc.UnregisterDevice(context.Background(), "user-1", "dev-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deactivated {
		t.Fatalf("expected the device to be deactivated")
	}
}

func TestUnregisterDevicePassesThroughNotFound(t *testing.T) {
	store := &stubDeviceTokensStore{
		getFunc: func(context.Context, string) (domain.DeviceToken, error) {
			return domain.DeviceToken{}, domain.ErrNotFound
		},
	}
	svc := &DeviceService{Devices: store}

	if err := svc.UnregisterDevice(context.Background(), "user-1", "dev-404"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnregisterByTokenUsesSystemPrincipal(t *testing.T) {
	store := &stubDeviceTokensStore{
		deactivateByTokenFunc: func(_ context.Context, token string, by domain.Principal, _ time.Time) error {
			if token != "fcm-token-1" {
				t.Fatalf("unexpected token: %s", token)
			}
			if !by.System {
				t.Fatalf("expected system principal, got %+v", by)
			}
			return nil
		},
	}
	svc := &DeviceService{Devices: store}

	if err := svc.UnregisterByToken(context.Background(), " fcm-token-1 "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
