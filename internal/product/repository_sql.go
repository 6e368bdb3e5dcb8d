package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/pricing"
	"github.com/wichananm65/deko-shop-backend/internal/store"
)

// SQLRepository reads and writes products through sqlx; queries use ? and
// are rebound for the active driver.
type SQLRepository struct {
	db *sqlx.DB
}

const (
	selectProductColumns = `SELECT id, name, description, price, price_net, tax_rate, stock, image_url, category, created_at FROM products`

	listProductsQuery   = selectProductColumns + ` ORDER BY created_at DESC, id DESC`
	getProductByIDQuery = selectProductColumns + ` WHERE id = ?`

	insertProductQuery = `
		INSERT INTO products (name, description, price, price_net, tax_rate, stock, image_url, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	deleteProductItemsQuery = `DELETE FROM order_items WHERE product_id = ?`
	deleteProductQuery      = `DELETE FROM products WHERE id = ?`
	decrementStockQuery     = `UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`
	categoriesQuery         = `SELECT DISTINCT category FROM products WHERE category IS NOT NULL AND category <> ''`
	stockCountsQuery        = `SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN stock <= ? THEN 1 ELSE 0 END), 0) AS low FROM products`
)

type productRow struct {
	ID          int64               `db:"id"`
	Name        string              `db:"name"`
	Description sql.NullString      `db:"description"`
	Price       decimal.Decimal     `db:"price"`
	PriceNet    decimal.NullDecimal `db:"price_net"`
	TaxRate     decimal.Decimal     `db:"tax_rate"`
	Stock       int                 `db:"stock"`
	ImageURL    sql.NullString      `db:"image_url"`
	Category    sql.NullString      `db:"category"`
	CreatedAt   string              `db:"created_at"`
}

// toProduct fills PriceNet from the gross price for rows written before the
// net price was stored.
func (r productRow) toProduct() Product {
	net := r.PriceNet.Decimal
	if !r.PriceNet.Valid {
		net = pricing.ComputeNet(r.Price, r.TaxRate)
	}
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: nullable(r.Description),
		Price:       pricing.NewMoney(r.Price),
		PriceNet:    pricing.NewMoney(net),
		TaxRate:     pricing.NewRate(r.TaxRate),
		Stock:       r.Stock,
		ImageURL:    nullable(r.ImageURL),
		Category:    nullable(r.Category),
		CreatedAt:   r.CreatedAt,
	}
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) List(ctx context.Context) ([]Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, listProductsQuery); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toProduct())
	}
	return products, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (Product, error) {
	return FindWith(ctx, r.db, id)
}

// FindWith loads one product through ext, which may be a transaction.
func FindWith(ctx context.Context, ext sqlx.ExtContext, id int64) (Product, error) {
	var row productRow
	if err := sqlx.GetContext(ctx, ext, &row, ext.Rebind(getProductByIDQuery), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return row.toProduct(), nil
}

// DecrementStockWith takes qty units off the product's stock unless fewer
// remain, in which case it returns ErrInsufficientStock and changes nothing.
func DecrementStockWith(ctx context.Context, ext sqlx.ExtContext, id int64, qty int) error {
	result, err := ext.ExecContext(ctx, ext.Rebind(decrementStockQuery), qty, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock of product %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *SQLRepository) Create(ctx context.Context, p Product) (Product, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(insertProductQuery),
		p.Name,
		p.Description,
		p.Price.Decimal,
		p.PriceNet.Decimal,
		p.TaxRate.Decimal,
		p.Stock,
		p.ImageURL,
		p.Category,
	).Scan(&id)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *SQLRepository) Update(ctx context.Context, id int64, patch Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Stock != nil {
		add("stock", *patch.Stock)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.PriceNet != nil {
		add("price_net", *patch.PriceNet)
	}
	if patch.TaxRate != nil {
		add("tax_rate", *patch.TaxRate)
	}

	args = append(args, id)
	query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	return store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(deleteProductItemsQuery), id); err != nil {
			return fmt.Errorf("delete order items of product %d: %w", id, err)
		}

		result, err := tx.ExecContext(ctx, tx.Rebind(deleteProductQuery), id)
		if err != nil {
			return fmt.Errorf("delete product %d: %w", id, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *SQLRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.SelectContext(ctx, &categories, categoriesQuery); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *SQLRepository) StockCounts(ctx context.Context) (int, int, error) {
	var counts struct {
		Total int `db:"total"`
		Low   int `db:"low"`
	}
	if err := r.db.GetContext(ctx, &counts, r.db.Rebind(stockCountsQuery), LowStockThreshold); err != nil {
		return 0, 0, fmt.Errorf("count stock: %w", err)
	}
	return counts.Total, counts.Low, nil
}
