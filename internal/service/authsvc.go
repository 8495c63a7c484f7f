package service

import (
	"context"
	"errors"

	"StagePasswebserver/internal/domain"
)

type UsersStore interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

type SessionsStore interface {
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
}

// AuthService resolves session cookies to users. Session issuance, login and
// registration live in the account service; this backend only needs to know
// who is calling.
type AuthService struct {
	Users    UsersStore
	Sessions SessionsStore
}

func (s *AuthService) GetUserForSession(ctx context.Context, sessionID string) (domain.User, error) {
	sess, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}

	u, err := s.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, domain.ErrUserDisabled
	}

	return u, nil
}
