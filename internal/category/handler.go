package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterPublicRoutes must run before the product routes so the literal
// path wins over /api/products/:id.
func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/api/products/categories", h.getCategories)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		return apperror.Wrap(err, "list categories")
	}
	return c.JSON(items)
}
