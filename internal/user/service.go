package user

import (
	"context"
	"errors"

	"github.com/wichananm65/deko-shop-backend/internal/password"
	"go.uber.org/zap"
)

type Service struct {
	repo   Repository
	hasher *password.Hasher
	log    *zap.Logger
}

func NewService(repo Repository, hasher *password.Hasher, log *zap.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, log: log}
}

func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// FirstAdmin returns the account that receives password reset requests.
func (s *Service) FirstAdmin(ctx context.Context) (User, error) {
	return s.repo.FirstByRole(ctx, RoleAdmin)
}

// Authenticate checks a username/password pair. An unknown username costs the
// same hashing work as a wrong password and yields the same error.
func (s *Service) Authenticate(ctx context.Context, username, plain string) (User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		s.hasher.VerifyDummy(plain)
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if !s.hasher.Verify(plain, user.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		if err := s.SetPassword(ctx, user.ID, plain); err != nil {
			s.log.Warn("password rehash failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(current, user.PasswordHash) {
		return ErrWrongPassword
	}

	return s.SetPassword(ctx, id, next)
}

// SetPassword replaces the password without checking the old one. Used by
// the reset flow and operator tooling.
func (s *Service) SetPassword(ctx context.Context, id int64, next string) error {
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

func (s *Service) SetPasswordByUsername(ctx context.Context, username, next string) error {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.SetPassword(ctx, user.ID, next)
}

// EnsureAdmin creates the admin account when no user with that name exists.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, plain string) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return false, err
	}

	created, err := s.repo.Create(ctx, User{Username: username, PasswordHash: hash, Role: RoleAdmin})
	if err != nil {
		return false, err
	}

	s.log.Info("admin account created", zap.Int64("user_id", created.ID), zap.String("username", username))
	return true, nil
}
