package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-store/internal/platform/db"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	CreateItem(ctx context.Context, item Item) (Item, error)
	UpdateItem(ctx context.Context, item Item) error
	GetItemForUpdate(ctx context.Context, storeID, productID int64) (Item, error)
	SetStock(ctx context.Context, storeID, productID int64, stock int) error
	InsertMovement(ctx context.Context, mv Movement) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

const itemColumns = `product_id, store_id, sku, name, unit, current_stock, minimum_stock, maximum_stock, expiration_date, unit_cost, supplier_id, updated_at`

// WithTx runs fn in a repeatable-read transaction, retrying on
// serialization failures.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// ListItems returns every item stocked by the store ordered by name.
func (r *Repository) ListItems(ctx context.Context, storeID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE store_id=$1 ORDER BY name ASC, product_id ASC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItem loads one item.
func (r *Repository) GetItem(ctx context.Context, storeID, productID int64) (Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE store_id=$1 AND product_id=$2`, storeID, productID)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return item, err
}

// ListStoreIDs returns every store holding inventory.
func (r *Repository) ListStoreIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT store_id FROM inventory_items ORDER BY store_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListMovements returns the latest movements of an item, newest first.
func (r *Repository) ListMovements(ctx context.Context, storeID, productID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, store_id, product_id, delta, balance, reason, reference, created_at
FROM inventory_movements
WHERE store_id=$1 AND product_id=$2
ORDER BY created_at DESC, id DESC
LIMIT $3`, storeID, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	moves := []Movement{}
	for rows.Next() {
		var mv Movement
		if err := rows.Scan(&mv.ID, &mv.StoreID, &mv.ProductID, &mv.Delta, &mv.Balance, &mv.Reason, &mv.Reference, &mv.CreatedAt); err != nil {
			return nil, err
		}
		moves = append(moves, mv)
	}
	return moves, rows.Err()
}

func (r *txRepository) CreateItem(ctx context.Context, item Item) (Item, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_items (store_id, sku, name, unit, current_stock, minimum_stock, maximum_stock, expiration_date, unit_cost, supplier_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, 0), $11)
RETURNING product_id`,
		item.StoreID, item.SKU, item.Name, item.Unit, item.CurrentStock, item.MinimumStock, item.MaximumStock,
		item.ExpirationDate, item.UnitCost, item.SupplierID, item.UpdatedAt).Scan(&item.ProductID)
	if err != nil {
		return Item{}, mapUniqueViolation(err)
	}
	return item, nil
}

func (r *txRepository) UpdateItem(ctx context.Context, item Item) error {
	tag, err := r.tx.Exec(ctx, `UPDATE inventory_items
SET sku=$3, name=$4, unit=$5, current_stock=$6, minimum_stock=$7, maximum_stock=$8, expiration_date=$9, unit_cost=$10, supplier_id=NULLIF($11, 0), updated_at=$12
WHERE store_id=$1 AND product_id=$2`,
		item.StoreID, item.ProductID, item.SKU, item.Name, item.Unit, item.CurrentStock, item.MinimumStock, item.MaximumStock,
		item.ExpirationDate, item.UnitCost, item.SupplierID, item.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, storeID, productID int64) (Item, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE store_id=$1 AND product_id=$2 FOR UPDATE`, storeID, productID)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return item, err
}

func (r *txRepository) SetStock(ctx context.Context, storeID, productID int64, stock int) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory_items SET current_stock=$3, updated_at=$4 WHERE store_id=$1 AND product_id=$2`,
		storeID, productID, stock, time.Now().UTC())
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, mv Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_movements (store_id, product_id, delta, balance, reason, reference, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		mv.StoreID, mv.ProductID, mv.Delta, mv.Balance, mv.Reason, mv.Reference, mv.CreatedAt).Scan(&id)
	return id, err
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	var supplierID *int64
	err := row.Scan(&item.ProductID, &item.StoreID, &item.SKU, &item.Name, &item.Unit,
		&item.CurrentStock, &item.MinimumStock, &item.MaximumStock, &item.ExpirationDate,
		&item.UnitCost, &supplierID, &item.UpdatedAt)
	if err != nil {
		return Item{}, err
	}
	if supplierID != nil {
		item.SupplierID = *supplierID
	}
	return item, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateSKU
	}
	return err
}
