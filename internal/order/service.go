package order

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/pricing"
)

// Inventory reports product counts for the dashboard.
type Inventory interface {
	StockCounts(ctx context.Context) (total, low int, err error)
}

type Service struct {
	repo      Repository
	inventory Inventory
}

func NewService(repo Repository, inventory Inventory) *Service {
	return &Service{repo: repo, inventory: inventory}
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

// Update applies a partial edit. An empty patch is reported as unchanged
// without looking the order up.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Stats counts orders per status and sums the revenue of every order that
// was not cancelled.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	products, low, err := s.inventory.StockCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	orders, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		Products:         products,
		LowStockProducts: low,
		Orders:           len(orders),
		OrdersByStatus:   map[Status]int{},
	}
	revenue := decimal.Zero
	for _, o := range orders {
		st.OrdersByStatus[o.Status]++
		if o.Status != StatusCancelled {
			revenue = revenue.Add(o.TotalPrice.Decimal)
		}
	}
	st.Revenue = pricing.NewMoney(revenue)
	return st, nil
}
