package product

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/pricing"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput is a validated create request. A nil TaxRate means the
// default rate; a zero rate is kept as zero.
type CreateInput struct {
	Name        string
	Description *string
	PriceNet    decimal.Decimal
	TaxRate     *decimal.Decimal
	Stock       int
	ImageURL    *string
	Category    *string
}

// UpdateInput is a validated partial update; nil fields are left alone.
type UpdateInput struct {
	Name        *string
	Description *string
	PriceNet    *decimal.Decimal
	TaxRate     *decimal.Decimal
	Stock       *int
	ImageURL    *string
	Category    *string
}

func (in UpdateInput) IsEmpty() bool {
	return in.Name == nil && in.Description == nil && in.PriceNet == nil && in.TaxRate == nil &&
		in.Stock == nil && in.ImageURL == nil && in.Category == nil
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	taxRate := pricing.DefaultTaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}

	return s.repo.Create(ctx, Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       pricing.NewMoney(pricing.ComputeGross(in.PriceNet, taxRate)),
		PriceNet:    pricing.NewMoney(in.PriceNet),
		TaxRate:     pricing.NewRate(taxRate),
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
	})
}

// Update applies in to product id. The gross price is recomputed only when
// the net price or the tax rate is supplied, and always from the stored net
// price, never re-derived from the rounded gross. It reports whether
// anything was written.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (bool, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if in.IsEmpty() {
		return false, nil
	}

	patch := Patch{
		Name:        in.Name,
		Description: in.Description,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
	}

	if in.PriceNet != nil || in.TaxRate != nil {
		net := current.PriceNet.Decimal
		if in.PriceNet != nil {
			net = *in.PriceNet
		}
		rate := current.TaxRate.Decimal
		if in.TaxRate != nil {
			rate = *in.TaxRate
		}
		gross := pricing.ComputeGross(net, rate)
		patch.Price, patch.PriceNet, patch.TaxRate = &gross, &net, &rate
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// StockCounts feeds the admin dashboard.
func (s *Service) StockCounts(ctx context.Context) (int, int, error) {
	return s.repo.StockCounts(ctx)
}
