package order

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wichananm65/deko-shop-backend/internal/pricing"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	// List returns every order newest first, each with its items.
	List(ctx context.Context) ([]Order, error)
	GetByID(ctx context.Context, id int64) (Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Update(ctx context.Context, id int64, patch Patch) error
	// Delete removes the order's items and then the order in one transaction.
	Delete(ctx context.Context, id int64) error
}

// InMemoryRepository is a simple in-memory implementation for tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Order
}

func NewInMemoryRepository(seed []Order) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Order, 0, len(seed))}
	r.storage = append(r.storage, seed...)
	return r
}

func (r *InMemoryRepository) List(_ context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, len(r.storage))
	copy(out, r.storage)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int64) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.storage {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id int64, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) Update(_ context.Context, id int64, patch Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID != id {
			continue
		}
		o := &r.storage[i]
		if patch.CustomerInfo != nil {
			o.CustomerInfo = *patch.CustomerInfo
		}
		if patch.TotalPrice != nil {
			o.TotalPrice = pricing.NewMoney(*patch.TotalPrice)
		}
		if patch.ShippingMethod != nil {
			o.ShippingMethod = *patch.ShippingMethod
		}
		if patch.ShippingCost != nil {
			o.ShippingCost = pricing.NewMoney(*patch.ShippingCost)
		}
		return nil
	}
	return ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
