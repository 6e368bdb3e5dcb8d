package order

import (
	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/address"
	"github.com/wichananm65/deko-shop-backend/internal/pricing"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	// StatusOpen is what older orders were created with; it means the same as PENDING.
	StatusOpen Status = "OPEN"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusOpen:
		return true
	}
	return false
}

const (
	ShippingMethodShipping = "shipping"
	ShippingMethodPickup   = "pickup"

	PaymentMethodPayPal = "PayPal"
	DefaultFont         = "Standard"
)

// CustomerInfo is stored as a JSON document in orders.customer_info.
type CustomerInfo struct {
	Billing  address.Address `json:"billing"`
	Shipping address.Address `json:"shipping"`
	Email    string          `json:"email"`
}

type Order struct {
	ID             int64         `json:"id"`
	CustomerInfo   CustomerInfo  `json:"customer_info"`
	TotalPrice     pricing.Money `json:"total_price"`
	PaymentMethod  string        `json:"payment_method"`
	Status         Status        `json:"status"`
	ShippingMethod string        `json:"shipping_method"`
	ShippingCost   pricing.Money `json:"shipping_cost"`
	CreatedAt      string        `json:"created_at"`
	Items          []Item        `json:"items"`
}

// Item is one order line. ProductName and PriceAtPurchase are copied from the
// product at checkout and never follow later product edits.
type Item struct {
	ID              int64         `json:"id"`
	OrderID         int64         `json:"order_id"`
	ProductID       *int64        `json:"product_id"`
	ProductName     string        `json:"product_name"`
	Quantity        int           `json:"quantity"`
	PriceAtPurchase pricing.Money `json:"price_at_purchase"`
	CustomText      *string       `json:"custom_text"`
	CustomFont      string        `json:"custom_font"`
}

// Patch is a partial admin edit; nil fields are left alone.
type Patch struct {
	CustomerInfo   *CustomerInfo
	TotalPrice     *decimal.Decimal
	ShippingMethod *string
	ShippingCost   *decimal.Decimal
}

func (p Patch) IsEmpty() bool {
	return p.CustomerInfo == nil && p.TotalPrice == nil && p.ShippingMethod == nil && p.ShippingCost == nil
}

// Stats are the admin dashboard numbers.
type Stats struct {
	Products         int            `json:"products"`
	LowStockProducts int            `json:"low_stock_products"`
	Orders           int            `json:"orders"`
	OrdersByStatus   map[Status]int `json:"orders_by_status"`
	Revenue          pricing.Money  `json:"revenue"`
}
