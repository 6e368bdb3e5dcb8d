package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/user"
	"github.com/wichananm65/deko-shop-backend/internal/validation"
	"go.uber.org/zap"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgResetRequested     = "If an admin account exists, a reset link has been sent."
)

type Handler struct {
	service  *Service
	sessions *Sessions
	log      *zap.Logger
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func NewHandler(service *Service, sessions *Sessions, log *zap.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, log: log}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/api/admin/login", h.login)
	r.Post("/api/admin/logout", h.logout)
	r.Post("/api/admin/forgot-password", h.forgotPassword)
	r.Post("/api/admin/reset-password", h.resetPassword)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router, protect fiber.Handler) {
	r.Get("/api/admin/me", protect, h.me)
	r.Put("/api/admin/change-password", protect, h.changePassword)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload, err := validation.Parse[loginRequest](c)
	if err != nil {
		return err
	}

	token, u, err := h.service.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			return apperror.NewUnauthorized(msgInvalidCredentials)
		}
		return apperror.Wrap(err, "login")
	}

	h.sessions.SetCookie(c, token)
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    fiber.Map{"id": u.ID, "username": u.Username, "role": u.Role},
	})
}

func (h *Handler) logout(c *fiber.Ctx) error {
	h.sessions.ClearCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *Handler) me(c *fiber.Ctx) error {
	id, err := IdentityFromCtx(c)
	if err != nil {
		return err
	}
	return c.JSON(id)
}

func (h *Handler) changePassword(c *fiber.Ctx) error {
	id, err := IdentityFromCtx(c)
	if err != nil {
		return err
	}

	payload, err := validation.Parse[changePasswordRequest](c)
	if err != nil {
		return err
	}

	err = h.service.ChangePassword(c.UserContext(), id.UserID, payload.CurrentPassword, payload.NewPassword)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "Password changed"})
	case errors.Is(err, user.ErrWrongPassword):
		return apperror.NewUnauthorized("current password is incorrect")
	case errors.Is(err, user.ErrNotFound):
		return apperror.NewNotFound("user not found")
	default:
		return apperror.Wrap(err, "change password")
	}
}

func (h *Handler) forgotPassword(c *fiber.Ctx) error {
	if err := h.service.RequestReset(c.UserContext()); err != nil {
		h.log.Error("password reset request failed", zap.Error(err))
	}
	return c.JSON(fiber.Map{"message": msgResetRequested})
}

func (h *Handler) resetPassword(c *fiber.Ctx) error {
	payload, err := validation.Parse[resetPasswordRequest](c)
	if err != nil {
		return err
	}

	err = h.service.ResetPassword(c.UserContext(), payload.Token, payload.NewPassword)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "Password has been reset"})
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, user.ErrNotFound):
		return apperror.NewBusinessRule(ErrTokenInvalid.Error())
	default:
		return apperror.Wrap(err, "reset password")
	}
}
