package shop

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/deko-shop-backend/internal/address"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/order"
	"github.com/wichananm65/deko-shop-backend/internal/util"
	"github.com/wichananm65/deko-shop-backend/internal/validation"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

type lineRequest struct {
	ProductID  int64   `json:"productId" validate:"gt=0"`
	Quantity   int     `json:"quantity" validate:"gt=0"`
	CustomText *string `json:"customText" validate:"omitempty,max=200"`
	CustomFont string  `json:"customFont" validate:"max=50"`
}

type checkoutRequest struct {
	Items          []lineRequest    `json:"items" validate:"required,min=1,dive"`
	Billing        address.Address  `json:"billing"`
	Shipping       *address.Address `json:"shipping"`
	ShippingMethod string           `json:"shippingMethod" validate:"oneof=shipping pickup"`
	Email          string           `json:"email" validate:"required,email"`
	PaymentMethod  string           `json:"paymentMethod" validate:"oneof=PayPal"`
	// Website is a honeypot field that stays empty for humans.
	Website string `json:"website"`
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/api/shop/checkout", h.checkout)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	var payload checkoutRequest
	if err := c.BodyParser(&payload); err != nil {
		util.CheckoutFailuresTotal.WithLabelValues("validation").Inc()
		return apperror.NewValidation("invalid request body", nil)
	}

	if strings.TrimSpace(payload.Website) != "" {
		util.CheckoutFailuresTotal.WithLabelValues("spam").Inc()
		h.log.Warn("checkout honeypot triggered", zap.String("ip", c.IP()), zap.String("user_agent", c.Get(fiber.HeaderUserAgent)))
		return apperror.NewValidation("invalid data", nil)
	}

	payload.normalize()
	if err := validation.Check(payload).Err(); err != nil {
		util.CheckoutFailuresTotal.WithLabelValues("validation").Inc()
		return err
	}

	in := CheckoutInput{
		Lines:          make([]Line, 0, len(payload.Items)),
		Billing:        payload.Billing,
		Shipping:       payload.Shipping,
		ShippingMethod: payload.ShippingMethod,
		Email:          payload.Email,
		PaymentMethod:  payload.PaymentMethod,
	}
	for _, it := range payload.Items {
		in.Lines = append(in.Lines, Line{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			CustomText: it.CustomText,
			CustomFont: it.CustomFont,
		})
	}

	placed, err := h.service.Checkout(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order placed",
		"orderId": placed.ID,
	})
}

// normalize trims text fields and fills the defaults for omitted choices.
func (r *checkoutRequest) normalize() {
	r.Billing = r.Billing.Normalize()
	if r.Shipping != nil {
		shipping := r.Shipping.Normalize()
		r.Shipping = &shipping
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.ShippingMethod == "" {
		r.ShippingMethod = order.ShippingMethodShipping
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = order.PaymentMethodPayPal
	}
	for i := range r.Items {
		r.Items[i].CustomFont = strings.TrimSpace(r.Items[i].CustomFont)
	}
}
