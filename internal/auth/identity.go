package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
)

// Identity is the decoded session of the calling admin.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IdentityFromCtx reads the claims the session middleware stored in
// c.Locals("user").
func IdentityFromCtx(c *fiber.Ctx) (Identity, error) {
	tok, ok := c.Locals(contextKey).(*jwt.Token)
	if !ok || tok == nil {
		return Identity{}, apperror.NewUnauthorized("unauthorized")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, apperror.NewUnauthorized("unauthorized")
	}

	id, ok := int64Claim(claims["user_id"])
	if !ok || id <= 0 {
		return Identity{}, apperror.NewUnauthorized("unauthorized")
	}

	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	return Identity{UserID: id, Username: username, Role: role}, nil
}

func int64Claim(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
