package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/deko-shop-backend/internal/pricing"
	"github.com/wichananm65/deko-shop-backend/internal/product"
	"github.com/wichananm65/deko-shop-backend/internal/store"
	"go.uber.org/zap"
)

type SQLRepository struct {
	db *sqlx.DB
}

const (
	selectOrderColumns = `SELECT id, customer_info, total_price, payment_method, status, shipping_method, shipping_cost, created_at FROM orders`

	listOrdersQuery   = selectOrderColumns + ` ORDER BY created_at DESC, id DESC`
	getOrderByIDQuery = selectOrderColumns + ` WHERE id = ?`

	selectItemColumns = `SELECT id, order_id, product_id, product_name, quantity, price_at_purchase, custom_text, custom_font FROM order_items`

	itemsByOrderQuery  = selectItemColumns + ` WHERE order_id = ? ORDER BY id`
	itemsByOrdersQuery = selectItemColumns + ` WHERE order_id IN (?) ORDER BY order_id, id`

	updateStatusQuery     = `UPDATE orders SET status = ? WHERE id = ?`
	deleteOrderItemsQuery = `DELETE FROM order_items WHERE order_id = ?`
	deleteOrderQuery      = `DELETE FROM orders WHERE id = ?`

	insertOrderQuery = `
		INSERT INTO orders (customer_info, total_price, payment_method, status, shipping_method, shipping_cost)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	insertItemQuery = `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, price_at_purchase, custom_text, custom_font)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
)

type orderRow struct {
	ID             int64           `db:"id"`
	CustomerInfo   string          `db:"customer_info"`
	TotalPrice     decimal.Decimal `db:"total_price"`
	PaymentMethod  string          `db:"payment_method"`
	Status         string          `db:"status"`
	ShippingMethod string          `db:"shipping_method"`
	ShippingCost   decimal.Decimal `db:"shipping_cost"`
	CreatedAt      string          `db:"created_at"`
}

func (r orderRow) toOrder() Order {
	var info CustomerInfo
	if err := json.Unmarshal([]byte(r.CustomerInfo), &info); err != nil {
		zap.L().Warn("unreadable customer_info", zap.Int64("order_id", r.ID), zap.Error(err))
	}
	return Order{
		ID:             r.ID,
		CustomerInfo:   info,
		TotalPrice:     pricing.NewMoney(r.TotalPrice),
		PaymentMethod:  r.PaymentMethod,
		Status:         Status(r.Status),
		ShippingMethod: r.ShippingMethod,
		ShippingCost:   pricing.NewMoney(r.ShippingCost),
		CreatedAt:      r.CreatedAt,
		Items:          []Item{},
	}
}

type itemRow struct {
	ID              int64           `db:"id"`
	OrderID         int64           `db:"order_id"`
	ProductID       sql.NullInt64   `db:"product_id"`
	ProductName     string          `db:"product_name"`
	Quantity        int             `db:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase"`
	CustomText      sql.NullString  `db:"custom_text"`
	CustomFont      sql.NullString  `db:"custom_font"`
}

func (r itemRow) toItem() Item {
	it := Item{
		ID:              r.ID,
		OrderID:         r.OrderID,
		ProductName:     r.ProductName,
		Quantity:        r.Quantity,
		PriceAtPurchase: pricing.NewMoney(r.PriceAtPurchase),
		CustomFont:      DefaultFont,
	}
	if r.ProductID.Valid {
		id := r.ProductID.Int64
		it.ProductID = &id
	}
	if r.CustomText.Valid {
		text := r.CustomText.String
		it.CustomText = &text
	}
	if r.CustomFont.Valid && r.CustomFont.String != "" {
		it.CustomFont = r.CustomFont.String
	}
	return it
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) List(ctx context.Context) ([]Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, listOrdersQuery); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(rows) == 0 {
		return []Order{}, nil
	}

	orders := make([]Order, 0, len(rows))
	index := make(map[int64]int, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		index[row.ID] = len(orders)
		orders = append(orders, row.toOrder())
		ids = append(ids, row.ID)
	}

	query, args, err := sqlx.In(itemsByOrdersQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("build order items query: %w", err)
	}
	var items []itemRow
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	for _, item := range items {
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item.toItem())
		}
	}
	return orders, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(getOrderByIDQuery), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order %d: %w", id, err)
	}

	var items []itemRow
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(itemsByOrderQuery), id); err != nil {
		return Order{}, fmt.Errorf("list items of order %d: %w", id, err)
	}

	o := row.toOrder()
	for _, item := range items {
		o.Items = append(o.Items, item.toItem())
	}
	return o, nil
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(updateStatusQuery), string(status), id)
	if err != nil {
		return fmt.Errorf("update status of order %d: %w", id, err)
	}
	return expectAffected(result)
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

	if patch.CustomerInfo != nil {
		info, err := json.Marshal(patch.CustomerInfo)
		if err != nil {
			return fmt.Errorf("encode customer info: %w", err)
		}
		add("customer_info", string(info))
	}
	if patch.TotalPrice != nil {
		add("total_price", *patch.TotalPrice)
	}
	if patch.ShippingMethod != nil {
		add("shipping_method", *patch.ShippingMethod)
	}
	if patch.ShippingCost != nil {
		add("shipping_cost", *patch.ShippingCost)
	}

	args = append(args, id)
	query := `UPDATE orders SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update order %d: %w", id, err)
	}
	return expectAffected(result)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	return store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(deleteOrderItemsQuery), id); err != nil {
			return fmt.Errorf("delete items of order %d: %w", id, err)
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(deleteOrderQuery), id)
		if err != nil {
			return fmt.Errorf("delete order %d: %w", id, err)
		}
		return expectAffected(result)
	})
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CheckoutTx is what a checkout may do inside its transaction.
type CheckoutTx interface {
	Product(ctx context.Context, id int64) (product.Product, error)
	InsertOrder(ctx context.Context, o Order) (int64, error)
	InsertItem(ctx context.Context, it Item) error
	// DecrementStock returns product.ErrInsufficientStock when the guarded
	// update finds fewer than qty units left.
	DecrementStock(ctx context.Context, productID int64, qty int) error
}

// Checkout runs fn in one transaction; any error from fn rolls everything back.
func (r *SQLRepository) Checkout(ctx context.Context, fn func(CheckoutTx) error) error {
	return store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&sqlCheckout{tx: tx})
	})
}

type sqlCheckout struct {
	tx *sqlx.Tx
}

func (c *sqlCheckout) Product(ctx context.Context, id int64) (product.Product, error) {
	return product.FindWith(ctx, c.tx, id)
}

func (c *sqlCheckout) InsertOrder(ctx context.Context, o Order) (int64, error) {
	info, err := json.Marshal(o.CustomerInfo)
	if err != nil {
		return 0, fmt.Errorf("encode customer info: %w", err)
	}

	var id int64
	err = c.tx.QueryRowxContext(ctx, c.tx.Rebind(insertOrderQuery),
		string(info),
		o.TotalPrice.Decimal,
		o.PaymentMethod,
		string(o.Status),
		o.ShippingMethod,
		o.ShippingCost.Decimal,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (c *sqlCheckout) InsertItem(ctx context.Context, it Item) error {
	font := it.CustomFont
	if font == "" {
		font = DefaultFont
	}
	_, err := c.tx.ExecContext(ctx, c.tx.Rebind(insertItemQuery),
		it.OrderID,
		it.ProductID,
		it.ProductName,
		it.Quantity,
		it.PriceAtPurchase.Decimal,
		it.CustomText,
		font,
	)
	if err != nil {
		return fmt.Errorf("insert item of order %d: %w", it.OrderID, err)
	}
	return nil
}

func (c *sqlCheckout) DecrementStock(ctx context.Context, productID int64, qty int) error {
	return product.DecrementStockWith(ctx, c.tx, productID, qty)
}
