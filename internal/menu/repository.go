package menu

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-store/internal/platform/db"
)

// Repository persists menus and recipe lines in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	CreateMenu(ctx context.Context, m Menu) (Menu, error)
	UpdateMenu(ctx context.Context, m Menu) error
	GetMenuForUpdate(ctx context.Context, storeID, menuID int64) (Menu, error)
	InsertLine(ctx context.Context, line RecipeLine) error
	DeleteLine(ctx context.Context, menuID, productID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("menu repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// ListMenus returns the store's menus with their recipe lines.
func (r *Repository) ListMenus(ctx context.Context, storeID int64) ([]Menu, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, store_id, name, category, price, updated_at FROM menus WHERE store_id=$1 ORDER BY name, id`, storeID)
	if err != nil {
		return nil, err
	}
	menus, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Menu, error) {
		var m Menu
		err := row.Scan(&m.ID, &m.StoreID, &m.Name, &m.Category, &m.Price, &m.UpdatedAt)
		return m, err
	})
	if err != nil {
		return nil, err
	}
	lines, err := queryLines(ctx, r.pool, `SELECT rl.menu_id, rl.product_id, rl.quantity_required, rl.unit
FROM recipe_lines rl JOIN menus m ON m.id = rl.menu_id
WHERE m.store_id=$1 ORDER BY rl.menu_id, rl.id`, storeID)
	if err != nil {
		return nil, err
	}
	byMenu := make(map[int64][]RecipeLine, len(menus))
	for _, line := range lines {
		byMenu[line.MenuID] = append(byMenu[line.MenuID], line)
	}
	for i := range menus {
		menus[i].Lines = byMenu[menus[i].ID]
	}
	return menus, nil
}

// GetMenu loads one menu with its recipe.
func (r *Repository) GetMenu(ctx context.Context, storeID, menuID int64) (Menu, error) {
	return getMenu(ctx, r.pool, storeID, menuID, "")
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getMenu(ctx context.Context, q querier, storeID, menuID int64, lock string) (Menu, error) {
	var m Menu
	err := q.QueryRow(ctx, `SELECT id, store_id, name, category, price, updated_at FROM menus WHERE store_id=$1 AND id=$2`+lock, storeID, menuID).
		Scan(&m.ID, &m.StoreID, &m.Name, &m.Category, &m.Price, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Menu{}, ErrMenuNotFound
	}
	if err != nil {
		return Menu{}, err
	}
	m.Lines, err = queryLines(ctx, q, `SELECT menu_id, product_id, quantity_required, unit FROM recipe_lines WHERE menu_id=$1 ORDER BY id`, menuID)
	return m, err
}

func queryLines(ctx context.Context, q querier, sql string, arg int64) ([]RecipeLine, error) {
	rows, err := q.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RecipeLine, error) {
		var l RecipeLine
		err := row.Scan(&l.MenuID, &l.ProductID, &l.QuantityRequired, &l.Unit)
		return l, err
	})
}

func (r *txRepository) CreateMenu(ctx context.Context, m Menu) (Menu, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO menus (store_id, name, category, price, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		m.StoreID, m.Name, m.Category, m.Price, m.UpdatedAt).Scan(&m.ID)
	return m, err
}

func (r *txRepository) UpdateMenu(ctx context.Context, m Menu) error {
	tag, err := r.tx.Exec(ctx, `UPDATE menus SET name=$3, category=$4, price=$5, updated_at=$6 WHERE store_id=$1 AND id=$2`,
		m.StoreID, m.ID, m.Name, m.Category, m.Price, m.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMenuNotFound
	}
	return nil
}

func (r *txRepository) GetMenuForUpdate(ctx context.Context, storeID, menuID int64) (Menu, error) {
	return getMenu(ctx, r.tx, storeID, menuID, " FOR UPDATE")
}

func (r *txRepository) InsertLine(ctx context.Context, line RecipeLine) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO recipe_lines (menu_id, product_id, quantity_required, unit) VALUES ($1, $2, $3, $4)`,
		line.MenuID, line.ProductID, line.QuantityRequired, line.Unit)
	return err
}

func (r *txRepository) DeleteLine(ctx context.Context, menuID, productID int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM recipe_lines WHERE menu_id=$1 AND product_id=$2`, menuID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}
