package auth

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/wichananm65/deko-shop-backend/internal/notify"
	"github.com/wichananm65/deko-shop-backend/internal/user"
	"github.com/wichananm65/deko-shop-backend/internal/util"
	"go.uber.org/zap"
)

// Dispatcher is the fire-and-forget side of notify.Dispatcher.
type Dispatcher interface {
	Dispatch(ev notify.Event)
}

type Options struct {
	ResetTokenTTL time.Duration
	PublicBaseURL string
	AdminEmail    string
}

type Service struct {
	users    *user.Service
	sessions *Sessions
	tokens   TokenStore
	notifier Dispatcher
	opts     Options
	log      *zap.Logger
}

func NewService(users *user.Service, sessions *Sessions, tokens TokenStore, notifier Dispatcher, opts Options, log *zap.Logger) *Service {
	return &Service{users: users, sessions: sessions, tokens: tokens, notifier: notifier, opts: opts, log: log}
}

// Login returns a signed session token for valid credentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, user.User, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			util.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		}
		return "", user.User{}, err
	}

	token, err := s.sessions.Issue(u)
	if err != nil {
		return "", user.User{}, err
	}

	util.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info("admin logged in", zap.Int64("user_id", u.ID))
	return token, u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	return s.users.ChangePassword(ctx, id, current, next)
}

// RequestReset issues a reset token for the designated admin account and
// hands the link to the notifier. Callers answer the same way whatever happens.
func (s *Service) RequestReset(ctx context.Context) error {
	admin, err := s.users.FirstAdmin(ctx)
	if errors.Is(err, user.ErrNotFound) {
		s.log.Warn("password reset requested but no admin account exists")
		return nil
	}
	if err != nil {
		return err
	}

	token, hash, err := NewResetToken()
	if err != nil {
		return err
	}
	if err := s.tokens.Save(ctx, hash, admin.ID, s.opts.ResetTokenTTL); err != nil {
		return err
	}

	s.notifier.Dispatch(notify.NewEvent(notify.EventPasswordResetRequested, s.opts.AdminEmail, map[string]any{
		"user_id":    admin.ID,
		"username":   admin.Username,
		"reset_link": s.resetLink(token),
		"expires_in": s.opts.ResetTokenTTL.String(),
	}))
	s.log.Info("password reset requested", zap.Int64("user_id", admin.ID))
	return nil
}

// ResetPassword consumes token and sets the new password on its account.
func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	userID, err := s.tokens.Consume(ctx, HashToken(token))
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, userID, next); err != nil {
		return err
	}
	s.log.Info("password reset completed", zap.Int64("user_id", userID))
	return nil
}

func (s *Service) resetLink(token string) string {
	return s.opts.PublicBaseURL + "/admin/reset-password?token=" + url.QueryEscape(token)
}
