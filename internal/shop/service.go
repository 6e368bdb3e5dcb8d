// Package shop places storefront orders.
package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/address"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/notify"
	"github.com/wichananm65/deko-shop-backend/internal/order"
	"github.com/wichananm65/deko-shop-backend/internal/pricing"
	"github.com/wichananm65/deko-shop-backend/internal/product"
	"github.com/wichananm65/deko-shop-backend/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Orders runs checkouts in one transaction; *order.SQLRepository implements it.
type Orders interface {
	Checkout(ctx context.Context, fn func(order.CheckoutTx) error) error
}

type Dispatcher interface {
	Dispatch(ev notify.Event)
}

type Options struct {
	ShippingFee decimal.Decimal
	// NotifyEmail receives the order notification.
	NotifyEmail string
}

type Line struct {
	ProductID  int64
	Quantity   int
	CustomText *string
	CustomFont string
}

// CheckoutInput is a validated checkout request. A nil Shipping means the
// parcel goes to the billing address.
type CheckoutInput struct {
	Lines          []Line
	Billing        address.Address
	Shipping       *address.Address
	ShippingMethod string
	Email          string
	PaymentMethod  string
}

type Service struct {
	orders   Orders
	notifier Dispatcher
	opts     Options
	log      *zap.Logger
}

func NewService(orders Orders, notifier Dispatcher, opts Options, log *zap.Logger) *Service {
	return &Service{orders: orders, notifier: notifier, opts: opts, log: log}
}

// ShippingCost is the fixed fee for parcels and nothing for pickup.
func (s *Service) ShippingCost(method string) decimal.Decimal {
	if method == order.ShippingMethodPickup {
		return decimal.Zero
	}
	return s.opts.ShippingFee
}

// Checkout checks stock, writes the order with its items and takes the
// quantities off stock, all in one transaction. Nothing is written when any
// line fails.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (order.Order, error) {
	ctx, span := util.StartSpan(ctx, "shop.Checkout")
	defer span.End()
	start := time.Now()
	defer func() { util.CheckoutDuration.Observe(time.Since(start).Seconds()) }()

	shipping := in.Billing
	if in.Shipping != nil {
		shipping = *in.Shipping
	}
	shippingCost := s.ShippingCost(in.ShippingMethod)

	placed := order.Order{
		CustomerInfo:   order.CustomerInfo{Billing: in.Billing, Shipping: shipping, Email: in.Email},
		PaymentMethod:  in.PaymentMethod,
		Status:         order.StatusPending,
		ShippingMethod: in.ShippingMethod,
		ShippingCost:   pricing.NewMoney(shippingCost),
	}

	err := s.orders.Checkout(ctx, func(tx order.CheckoutTx) error {
		items := make([]order.Item, 0, len(in.Lines))
		total := decimal.Zero

		for _, line := range in.Lines {
			p, err := tx.Product(ctx, line.ProductID)
			if errors.Is(err, product.ErrNotFound) {
				return rejected("not_found", fmt.Sprintf("product %d not found", line.ProductID))
			}
			if err != nil {
				return err
			}
			if p.Stock < line.Quantity {
				return outOfStock(p.Name)
			}

			pid := p.ID
			font := line.CustomFont
			if font == "" {
				font = order.DefaultFont
			}
			items = append(items, order.Item{
				ProductID:       &pid,
				ProductName:     p.Name,
				Quantity:        line.Quantity,
				PriceAtPurchase: p.Price,
				CustomText:      line.CustomText,
				CustomFont:      font,
			})
			total = total.Add(pricing.LineTotal(p.Price.Decimal, line.Quantity))
		}
		placed.TotalPrice = pricing.NewMoney(total.Add(shippingCost))

		id, err := tx.InsertOrder(ctx, placed)
		if err != nil {
			return err
		}
		placed.ID = id

		for i := range items {
			items[i].OrderID = id
			if err := tx.InsertItem(ctx, items[i]); err != nil {
				return err
			}
			// the guard catches a concurrent checkout or the same product on two lines
			if err := tx.DecrementStock(ctx, *items[i].ProductID, items[i].Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					return outOfStock(items[i].ProductName)
				}
				return err
			}
		}
		placed.Items = items
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout failed")
		var ce *checkoutError
		if errors.As(err, &ce) {
			util.CheckoutFailuresTotal.WithLabelValues(ce.reason).Inc()
			s.log.Info("checkout rejected", zap.String("reason", ce.reason), zap.String("detail", ce.app.Message))
			return order.Order{}, ce.app
		}
		util.CheckoutFailuresTotal.WithLabelValues("internal").Inc()
		return order.Order{}, apperror.Wrap(err, "checkout transaction")
	}

	span.SetAttributes(attribute.Int64("order_id", placed.ID), attribute.Int("items", len(placed.Items)))
	util.CheckoutOrdersTotal.Inc()
	s.log.Info("order placed",
		zap.Int64("order_id", placed.ID),
		zap.String("total", placed.TotalPrice.String()),
		zap.String("shipping_method", placed.ShippingMethod),
		zap.Int("items", len(placed.Items)),
	)

	s.notifier.Dispatch(notify.NewEvent(notify.EventOrderCreated, s.opts.NotifyEmail, orderPayload(placed)))
	return placed, nil
}

// checkoutError is a client-facing rejection raised inside the transaction.
type checkoutError struct {
	app    *apperror.Error
	reason string
}

func (e *checkoutError) Error() string { return e.app.Error() }

func rejected(reason, message string) *checkoutError {
	return &checkoutError{app: apperror.NewBusinessRule(message), reason: reason}
}

func outOfStock(name string) *checkoutError {
	return rejected("insufficient_stock", fmt.Sprintf("%q is not available in the requested quantity", name))
}

func orderPayload(o order.Order) map[string]any {
	lines := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		line := map[string]any{
			"product_name": it.ProductName,
			"quantity":     it.Quantity,
			"price":        it.PriceAtPurchase.String(),
			"custom_font":  it.CustomFont,
		}
		if it.CustomText != nil {
			line["custom_text"] = *it.CustomText
		}
		lines = append(lines, line)
	}
	return map[string]any{
		"order_id":        o.ID,
		"total_price":     o.TotalPrice.String(),
		"shipping_method": o.ShippingMethod,
		"shipping_cost":   o.ShippingCost.String(),
		"customer_email":  o.CustomerInfo.Email,
		"billing":         o.CustomerInfo.Billing.Lines(),
		"shipping":        o.CustomerInfo.Shipping.Lines(),
		"items":           lines,
	}
}
