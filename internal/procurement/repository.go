package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-store/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateOrder(ctx context.Context, order Order) (int64, error)
	InsertOrderLine(ctx context.Context, line OrderLine) (int64, error)
	GetOrderForUpdate(ctx context.Context, storeID, orderID int64) (Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus, at time.Time) error
}

type txRepo struct {
	tx pgx.Tx
}

const orderColumns = `id, number, store_id, supplier_id, status, total_amount, order_date, expected_delivery, notes, updated_at`

// WithTx runs fn in a repeatable-read transaction. Receiving adjusts stock
// through the inventory service from inside fn, so it is never re-run.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxAttempts(ctx, r.pool, 1, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListOrders returns the store's orders newest first, optionally filtered by
// status.
func (r *Repository) ListOrders(ctx context.Context, storeID int64, status OrderStatus, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM purchase_orders
WHERE store_id=$1 AND ($2 = '' OR status=$2)
ORDER BY order_date DESC, id DESC
LIMIT $3`, storeID, string(status), limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		return scanOrder(row)
	})
}

// GetOrder returns an order with its lines.
func (r *Repository) GetOrder(ctx context.Context, storeID, orderID int64) (Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE store_id=$1 AND id=$2`, storeID, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, total_price
FROM purchase_order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return Order{}, err
	}
	order.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderLine, error) {
		var l OrderLine
		err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.TotalPrice)
		return l, err
	})
	return order, err
}

func (t *txRepo) CreateOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchase_orders (number, store_id, supplier_id, status, total_amount, order_date, expected_delivery, notes, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		order.Number, order.StoreID, order.SupplierID, string(order.Status), order.TotalAmount,
		order.OrderDate, order.ExpectedDelivery, order.Notes, order.UpdatedAt).Scan(&id)
	return id, err
}

func (t *txRepo) InsertOrderLine(ctx context.Context, line OrderLine) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchase_order_lines (order_id, product_id, quantity, unit_price, total_price)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.TotalPrice).Scan(&id)
	return id, err
}

func (t *txRepo) GetOrderForUpdate(ctx context.Context, storeID, orderID int64) (Order, error) {
	order, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE store_id=$1 AND id=$2 FOR UPDATE`, storeID, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	rows, err := t.tx.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, total_price
FROM purchase_order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return Order{}, err
	}
	order.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderLine, error) {
		var l OrderLine
		err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.TotalPrice)
		return l, err
	})
	return order, err
}

func (t *txRepo) UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2, updated_at=$3 WHERE id=$1`, orderID, string(status), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.Number, &o.StoreID, &o.SupplierID, &status, &o.TotalAmount,
		&o.OrderDate, &o.ExpectedDelivery, &o.Notes, &o.UpdatedAt)
	o.Status = OrderStatus(status)
	return o, err
}
