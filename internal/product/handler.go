package product

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/validation"
)

type Handler struct {
	service *Service
}

type createRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description *string          `json:"description"`
	PriceNet    *decimal.Decimal `json:"price_net"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	ImageURL    *string          `json:"image_url"`
	Category    *string          `json:"category"`
}

type updateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	PriceNet    *decimal.Decimal `json:"price_net"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	ImageURL    *string          `json:"image_url"`
	Category    *string          `json:"category"`
}

func (r *createRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *updateRequest) normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers the catalogue reads. Ids are constrained to
// integers so /api/products/categories never reaches getProduct.
func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/api/products", h.getProducts)
	r.Get("/api/products/:id<int>", h.getProduct)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router, protect fiber.Handler) {
	r.Post("/api/products", protect, h.createProduct)
	r.Put("/api/products/:id<int>", protect, h.updateProduct)
	// form posts from the admin dashboard update through POST
	r.Post("/api/products/:id<int>", protect, h.updateProduct)
	r.Delete("/api/products/:id<int>", protect, h.deleteProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return apperror.Wrap(err, "list products")
	}

	views := make([]View, 0, len(products))
	for _, p := range products {
		views = append(views, p.View())
	}
	return c.JSON(views)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return mapError(err, "get product")
	}
	return c.JSON(p.View())
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	var payload createRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperror.NewValidation("invalid request body", nil)
	}
	payload.normalize()

	res := validation.Check(payload)
	if payload.PriceNet == nil {
		res.Merge(map[string]string{"price_net": "is required"})
	}
	res.Merge(nonNegative("price_net", payload.PriceNet))
	res.Merge(nonNegative("tax_rate", payload.TaxRate))
	if err := res.Err(); err != nil {
		return err
	}

	in := CreateInput{
		Name:        payload.Name,
		Description: payload.Description,
		PriceNet:    *payload.PriceNet,
		TaxRate:     payload.TaxRate,
		ImageURL:    payload.ImageURL,
		Category:    payload.Category,
	}
	if payload.Stock != nil {
		in.Stock = *payload.Stock
	}

	created, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return apperror.Wrap(err, "create product")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"id":          created.ID,
		"message":     "Product created",
		"price_gross": created.Price,
	})
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	var payload updateRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperror.NewValidation("invalid request body", nil)
	}
	payload.normalize()

	res := validation.Check(payload)
	if payload.Name != nil && *payload.Name == "" {
		res.Merge(map[string]string{"name": "must not be blank"})
	}
	res.Merge(nonNegative("price_net", payload.PriceNet))
	res.Merge(nonNegative("tax_rate", payload.TaxRate))
	if err := res.Err(); err != nil {
		return err
	}

	changed, err := h.service.Update(c.UserContext(), id, UpdateInput{
		Name:        payload.Name,
		Description: payload.Description,
		PriceNet:    payload.PriceNet,
		TaxRate:     payload.TaxRate,
		Stock:       payload.Stock,
		ImageURL:    payload.ImageURL,
		Category:    payload.Category,
	})
	if err != nil {
		return mapError(err, "update product")
	}
	if !changed {
		return c.JSON(fiber.Map{"success": true, "message": "nothing to change"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Product updated", "id": id})
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return mapError(err, "delete product")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Product deleted"})
}

func productID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation("invalid product id", nil)
	}
	return id, nil
}

func nonNegative(field string, v *decimal.Decimal) map[string]string {
	if v != nil && v.IsNegative() {
		return map[string]string{field: "must be at least 0"}
	}
	return nil
}

func mapError(err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		return apperror.NewNotFound("product not found")
	}
	return apperror.Wrap(err, op)
}
