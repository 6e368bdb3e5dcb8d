package auth

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/user"
)

const (
	CookieName    = "auth_token"
	LoginPagePath = "/admin/login"
	contextKey    = "user"
)

// Sessions issues and verifies the signed session token carried in the
// auth_token cookie.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Issue signs a token for u that expires after the session TTL.
func (s *Sessions) Issue(u user.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  u.ID,
		"username": u.Username,
		"role":     u.Role,
		"exp":      s.now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (s *Sessions) SetCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		Expires:  s.now().Add(s.ttl),
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Sessions) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  s.now().Add(-24 * time.Hour),
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// Middleware rejects requests without a valid session cookie. An invalid or
// expired cookie is cleared so the browser stops sending it.
func (s *Sessions) Middleware() fiber.Handler {
	return s.guard(func(c *fiber.Ctx) error {
		return apperror.NewUnauthorized("unauthorized")
	})
}

// PageMiddleware guards the admin HTML pages: visitors without a valid
// session are sent to the login page instead of getting a 401.
func (s *Sessions) PageMiddleware() fiber.Handler {
	return s.guard(func(c *fiber.Ctx) error {
		return c.Redirect(LoginPagePath)
	})
}

func (s *Sessions) guard(deny fiber.Handler) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    s.secret,
		SigningMethod: "HS256",
		TokenLookup:   "cookie:" + CookieName,
		ContextKey:    contextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if c.Cookies(CookieName) != "" {
				s.ClearCookie(c)
			}
			return deny(c)
		},
	})
}
