package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Pinger is satisfied by *store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db      Pinger
	log     *zap.Logger
	timeout time.Duration
}

func NewHandler(db Pinger, log *zap.Logger) *Handler {
	return &Handler{db: db, log: log, timeout: 2 * time.Second}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/api/health", h.health)
}

func (h *Handler) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	body := fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  "ok",
	}
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check: database unavailable", zap.Error(err))
		body["status"] = "degraded"
		body["database"] = "unavailable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}
