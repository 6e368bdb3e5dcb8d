package product

import (
	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/pricing"
)

// LowStockThreshold is the stock level at or below which a product is
// reported as LOW.
const LowStockThreshold = 10

const (
	StockLow = "LOW"
	StockOK  = "OK"
)

// Product maps to the products table. Price is the stored gross price;
// PriceNet is the net price it was derived from.
type Product struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Price       pricing.Money `json:"price"`
	PriceNet    pricing.Money `json:"price_net"`
	TaxRate     pricing.Rate  `json:"tax_rate"`
	Stock       int           `json:"stock"`
	ImageURL    *string       `json:"image_url"`
	Category    *string       `json:"category"`
	CreatedAt   string        `json:"created_at,omitempty"`
}

func StockStatus(stock int) string {
	if stock <= LowStockThreshold {
		return StockLow
	}
	return StockOK
}

// View is the public representation with derived fields.
type View struct {
	Product
	PriceGross  pricing.Money `json:"price_gross"`
	StockStatus string        `json:"stock_status"`
}

func (p Product) View() View {
	return View{Product: p, PriceGross: p.Price, StockStatus: StockStatus(p.Stock)}
}

// Patch holds the columns of a partial update; nil means unchanged.
type Patch struct {
	Name        *string
	Description *string
	Stock       *int
	ImageURL    *string
	Category    *string
	Price       *decimal.Decimal
	PriceNet    *decimal.Decimal
	TaxRate     *decimal.Decimal
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Stock == nil && p.ImageURL == nil &&
		p.Category == nil && p.Price == nil && p.PriceNet == nil && p.TaxRate == nil
}
