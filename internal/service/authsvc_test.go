package service

import (
	"context"
	"errors"
	"testing"

	"StagePasswebserver/internal/domain"
)

type stubUsersStore struct {
	getFunc func(context.Context, string) (domain.User, error)
}

func (s *stubUsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, id)
	}
	return domain.User{}, domain.ErrNotFound
}

type stubSessionsStore struct {
	getFunc func(context.Context, string) (domain.Session, error)
}

func (s *stubSessionsStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, sessionID)
	}
	return domain.Session{}, domain.ErrNotFound
}

func TestGetUserForSessionResolvesUser(t *testing.T) {
	svc := &AuthService{
		Sessions: &stubSessionsStore{
			getFunc: func(_ context.Context, sessionID string) (domain.Session, error) {
				if sessionID != "sess-1" {
					t.Fatalf("unexpected session id: %s", sessionID)
				}
				return domain.Session{ID: sessionID, UserID: "user-1"}, nil
			},
		},
		Users: &stubUsersStore{
			getFunc: func(_ context.Context, id string) (domain.User, error) {
				return domain.User{ID: id, Status: domain.UserStatusActive}, nil
			},
		},
	}

	u, err := svc.GetUserForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetUserForSessionUnknownSessionIsUnauthorized(t *testing.T) {
	svc := &AuthService{Sessions: &stubSessionsStore{}, Users: &stubUsersStore{}}

	if _, err := svc.GetUserForSession(context.Background(), "missing"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGetUserForSessionDisabledUser(t *testing.T) {
	svc := &AuthService{
		Sessions: &stubSessionsStore{
			getFunc: func(context.Context, string) (domain.Session, error) {
				return domain.Session{ID: "sess-1", UserID: "user-1"}, nil
			},
		},
		Users: &stubUsersStore{
			getFunc: func(_ context.Context, id string) (domain.User, error) {
				return domain.User{ID: id, Status: domain.UserStatusDisabled}, nil
			},
		},
	}

	if _, err := svc.GetUserForSession(context.Background(), "sess-1"); !errors.Is(err, domain.ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}
