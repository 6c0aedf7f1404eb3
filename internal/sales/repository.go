package sales

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-store/internal/platform/db"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateSale(ctx context.Context, sale Sale) (int64, error)
	InsertDetail(ctx context.Context, d Detail) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// List returns the latest sales of a store with their details.
func (r *Repository) List(ctx context.Context, storeID int64, limit int) ([]Sale, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `SELECT id, store_id, sold_at, total_amount, created_at FROM sales
WHERE store_id=$1 ORDER BY sold_at DESC, id DESC LIMIT $2`, storeID, limit)
	if err != nil {
		return nil, err
	}
	sales, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Sale, error) {
		var s Sale
		err := row.Scan(&s.ID, &s.StoreID, &s.SoldAt, &s.TotalAmount, &s.CreatedAt)
		return s, err
	})
	if err != nil || len(sales) == 0 {
		return sales, err
	}
	ids := make([]int64, 0, len(sales))
	for _, s := range sales {
		ids = append(ids, s.ID)
	}
	rows, err = r.pool.Query(ctx, `SELECT id, sale_id, menu_id, menu_name_detected, quantity, unit_price, subtotal, similarity, is_matched, requires_review
FROM sales_details WHERE sale_id = ANY($1) ORDER BY sale_id, id`, ids)
	if err != nil {
		return nil, err
	}
	details, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Detail, error) {
		var d Detail
		err := row.Scan(&d.ID, &d.SaleID, &d.MenuID, &d.MenuNameDetected, &d.Quantity, &d.UnitPrice, &d.Subtotal, &d.Similarity, &d.IsMatched, &d.RequiresReview)
		return d, err
	})
	if err != nil {
		return nil, err
	}
	bySale := make(map[int64][]Detail, len(sales))
	for _, d := range details {
		bySale[d.SaleID] = append(bySale[d.SaleID], d)
	}
	for i := range sales {
		sales[i].Details = bySale[sales[i].ID]
	}
	return sales, nil
}

func (r *txRepository) CreateSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (store_id, sold_at, total_amount, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		sale.StoreID, sale.SoldAt, sale.TotalAmount, sale.CreatedAt).Scan(&id)
	return id, err
}

func (r *txRepository) InsertDetail(ctx context.Context, d Detail) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_details (sale_id, menu_id, menu_name_detected, quantity, unit_price, subtotal, similarity, is_matched, requires_review)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		d.SaleID, d.MenuID, d.MenuNameDetected, d.Quantity, d.UnitPrice, d.Subtotal, d.Similarity, d.IsMatched, d.RequiresReview).Scan(&id)
	return id, err
}
