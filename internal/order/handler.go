package order

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/address"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/validation"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PROCESSING COMPLETED CANCELLED OPEN"`
}

type customerInfoRequest struct {
	Billing  address.Address  `json:"billing"`
	Shipping *address.Address `json:"shipping"`
	Email    string           `json:"email" validate:"required,email"`
}

type updateRequest struct {
	CustomerInfo   *customerInfoRequest `json:"customer_info"`
	TotalPrice     *decimal.Decimal     `json:"total_price"`
	ShippingMethod *string              `json:"shipping_method" validate:"omitempty,oneof=shipping pickup"`
	ShippingCost   *decimal.Decimal     `json:"shipping_cost"`
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router, protect fiber.Handler) {
	r.Get("/api/admin/orders", protect, h.listOrders)
	r.Get("/api/admin/orders/:id<int>", protect, h.getOrder)
	r.Put("/api/admin/orders/:id<int>/status", protect, h.updateStatus)
	r.Put("/api/admin/orders/:id<int>", protect, h.updateOrder)
	r.Delete("/api/admin/orders/:id<int>", protect, h.deleteOrder)
	r.Get("/api/admin/stats", protect, h.stats)
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext())
	if err != nil {
		return apperror.Wrap(err, "list orders")
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	o, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return mapError(err, "get order")
	}
	return c.JSON(o)
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	payload, err := validation.Parse[statusRequest](c)
	if err != nil {
		return err
	}

	status := Status(payload.Status)
	if err := h.service.UpdateStatus(c.UserContext(), id, status); err != nil {
		return mapError(err, "update order status")
	}

	h.log.Info("order status changed", zap.Int64("order_id", id), zap.String("status", payload.Status))
	return c.JSON(fiber.Map{"success": true, "message": "Status updated", "status": status})
}

func (h *Handler) updateOrder(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var payload updateRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperror.NewValidation("invalid request body", nil)
	}
	if payload.CustomerInfo != nil {
		payload.CustomerInfo.Billing = payload.CustomerInfo.Billing.Normalize()
		if payload.CustomerInfo.Shipping != nil {
			shipping := payload.CustomerInfo.Shipping.Normalize()
			payload.CustomerInfo.Shipping = &shipping
		}
		payload.CustomerInfo.Email = strings.TrimSpace(payload.CustomerInfo.Email)
	}

	res := validation.Check(payload)
	if payload.TotalPrice != nil && !payload.TotalPrice.IsPositive() {
		res.Merge(map[string]string{"total_price": "must be greater than 0"})
	}
	if payload.ShippingCost != nil && payload.ShippingCost.IsNegative() {
		res.Merge(map[string]string{"shipping_cost": "must be at least 0"})
	}
	if err := res.Err(); err != nil {
		return err
	}

	patch := Patch{
		TotalPrice:     payload.TotalPrice,
		ShippingMethod: payload.ShippingMethod,
		ShippingCost:   payload.ShippingCost,
	}
	if ci := payload.CustomerInfo; ci != nil {
		info := CustomerInfo{Billing: ci.Billing, Shipping: ci.Billing, Email: ci.Email}
		if ci.Shipping != nil {
			info.Shipping = *ci.Shipping
		}
		patch.CustomerInfo = &info
	}

	changed, err := h.service.Update(c.UserContext(), id, patch)
	if err != nil {
		return mapError(err, "update order")
	}
	if !changed {
		return c.JSON(fiber.Map{"success": true, "message": "nothing to change"})
	}

	h.log.Info("order edited", zap.Int64("order_id", id))
	return c.JSON(fiber.Map{"success": true, "message": "Order updated", "id": id})
}

func (h *Handler) deleteOrder(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return mapError(err, "delete order")
	}

	h.log.Info("order deleted", zap.Int64("order_id", id))
	return c.JSON(fiber.Map{"success": true, "message": "Order deleted"})
}

func (h *Handler) stats(c *fiber.Ctx) error {
	st, err := h.service.Stats(c.UserContext())
	if err != nil {
		return apperror.Wrap(err, "dashboard stats")
	}
	return c.JSON(st)
}

func orderID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation("invalid order id", nil)
	}
	return id, nil
}

func mapError(err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		return apperror.NewNotFound("order not found")
	}
	return apperror.Wrap(err, op)
}
