package sales

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps sales in process memory.
type MemoryRepository struct {
	mu       sync.Mutex
	sales    []Sale
	nextID   int64
	detailID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

type memoryTx struct {
	sales    []Sale
	nextID   int64
	detailID int64
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memoryTx{nextID: r.nextID, detailID: r.detailID}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.sales = append(r.sales, tx.sales...)
	r.nextID, r.detailID = tx.nextID, tx.detailID
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, storeID int64, limit int) ([]Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	out := []Sale{}
	for _, s := range r.sales {
		if s.StoreID == storeID {
			s.Details = append([]Detail(nil), s.Details...)
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SoldAt.Equal(out[j].SoldAt) {
			return out[i].SoldAt.After(out[j].SoldAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memoryTx) CreateSale(ctx context.Context, sale Sale) (int64, error) {
	t.nextID++
	sale.ID = t.nextID
	sale.Details = nil
	t.sales = append(t.sales, sale)
	return sale.ID, nil
}

func (t *memoryTx) InsertDetail(ctx context.Context, d Detail) (int64, error) {
	t.detailID++
	d.ID = t.detailID
	d.Candidates = nil
	for i := range t.sales {
		if t.sales[i].ID == d.SaleID {
			t.sales[i].Details = append(t.sales[i].Details, d)
			return d.ID, nil
		}
	}
	return 0, ErrSaleNotFound
}
