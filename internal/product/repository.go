package product

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/deko-shop-backend/internal/pricing"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int64, patch Patch) error
	// Delete removes the product together with the order items that reference it.
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	// StockCounts returns the number of products and how many of them are low on stock.
	StockCounts(ctx context.Context) (total, low int, err error)
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// seeding local data. It has no order items to detach on Delete.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
	nextID  int64
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]Product, 0, len(seed)),
		nextID:  1,
	}

	var maxID int64
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

// List returns newest first (highest id first, since ids grow with time).
func (r *InMemoryRepository) List(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, len(r.storage))
	copy(out, r.storage)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int64) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int64, patch Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			applyPatch(&r.storage[i], patch)
			return nil
		}
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

func (r *InMemoryRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	var out []string
	for _, p := range r.storage {
		if p.Category != nil && *p.Category != "" && !seen[*p.Category] {
			seen[*p.Category] = true
			out = append(out, *p.Category)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) StockCounts(_ context.Context) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	low := 0
	for _, p := range r.storage {
		if StockStatus(p.Stock) == StockLow {
			low++
		}
	}
	return len(r.storage), low, nil
}

func applyPatch(p *Product, patch Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		p.ImageURL = patch.ImageURL
	}
	if patch.Category != nil {
		p.Category = patch.Category
	}
	if patch.Price != nil {
		p.Price = pricing.NewMoney(*patch.Price)
	}
	if patch.PriceNet != nil {
		p.PriceNet = pricing.NewMoney(*patch.PriceNet)
	}
	if patch.TaxRate != nil {
		p.TaxRate = pricing.NewRate(*patch.TaxRate)
	}
}
